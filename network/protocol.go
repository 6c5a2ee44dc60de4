package network

// 消息ID。客户端请求和服务器响应使用同一个ID，出错时响应 MsgTypeError。
const (
	MsgTypeHeartbeat = 1
	MsgTypeJoinGame  = 101
	MsgTypeStartGame = 103
	MsgTypePlayCard  = 202
	MsgTypeJudge     = 203
	MsgTypeGameState = 301
	MsgTypeScores    = 302
	MsgTypeError     = 500
)
