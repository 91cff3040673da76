package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	Mongo           Category = "Mongo"
	RabbitMQ        Category = "RabbitMQ"
	Catalog         Category = "Catalog"
	Voting          Category = "Voting"
	WebSocket       Category = "WebSocket"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Voting
	RoomLifecycle SubCategory = "RoomLifecycle"
	VoteTally     SubCategory = "VoteTally"
	RoundReset    SubCategory = "RoundReset"

	// WebSocket
	Subscription SubCategory = "Subscription"
	Broadcast    SubCategory = "Broadcast"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RoomCode     ExtraKey = "RoomCode"
	SongID       ExtraKey = "SongID"
	Voter        ExtraKey = "Voter"
	ErrorMessage ExtraKey = "ErrorMessage"
)
