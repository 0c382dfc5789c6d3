package config

// Recognized configuration names. Channel-scoped names (senders, files,
// endpoints) are looked up under the current section first, so
// "interaction.eh.host" wins over "eh.host" while the interaction
// section is selected.
const (
	AppID           = "applicationid"
	ProtocolVersion = "protocol.version"

	ModelSrc               = "model.source"
	ModelBackgroundRefresh = "model.backgroundrefresh"
	ModelRefreshIntervalMs = "model.refresh.intervalms"
	ModelImplementation    = "model.implementation"
	ModelInitialCmdLine    = "model.vw.initialcommandline"
	ModelFileName          = "model.file.name"
	ModelBlobURI           = "model.blob.uri"

	LearningMode   = "rank.learning.mode"
	InitialEpsilon = "initialexplorationepsilon"

	InteractionSenderImplementation = "interaction.sender.implementation"
	ObservationSenderImplementation = "observation.sender.implementation"
	EpisodeSenderImplementation     = "episode.sender.implementation"

	// Section-scoped names, resolved against the current section.
	FileName       = "file.name"
	SQLiteFile     = "sqlite.file"
	EHHost         = "eh.host"
	EHName         = "eh.name"
	EHTasksLimit   = "eh.tasks.limit"
	EHMaxRetries   = "eh.max.http.retries"
	APIMHost       = "apim.host"
	APIMTasksLimit = "apim.tasks.limit"
	APIMMaxRetries = "apim.max.http.retries"
	QueueMode      = "queue.mode"

	InteractionUseCompression = "interaction.usedeferedcompression"
	InteractionUseDedup       = "interaction.usededup"
	ObservationUseCompression = "observation.usedeferedcompression"

	EpisodeFileName = "episode.file.name"
	EpisodeEHHost   = "episode.eh.host"

	QueueMaxBytes     = "queue.max.size.bytes"
	BatchMaxBytes     = "batch.max.size.bytes"
	BatchFlushMs      = "batch.flush.intervalms"
	ShutdownTimeoutMs = "queue.shutdown.timeoutms"

	TimeProviderImplementation = "time.provider.implementation"
	TraceLogImplementation     = "trace.log.implementation"
)

// Default implementation names accepted by the factory registries.
const (
	SenderFile   = "FILE_SENDER"
	SenderHTTP   = "EH_SENDER"
	SenderAPIM   = "API_SENDER"
	SenderSQLite = "SQLITE_SENDER"

	ModelSrcNone = "NO_MODEL_DATA"
	ModelSrcFile = "FILE_MODEL_DATA"
	ModelSrcHTTP = "HTTP_MODEL_DATA"

	ModelPassthrough = "PASSTHROUGH"

	TimeProviderClock = "CLOCK_TIME_PROVIDER"
	TimeProviderNull  = "NULL_TIME_PROVIDER"

	TraceLogNull    = "NULL_TRACE_LOG"
	TraceLogConsole = "CONSOLE_TRACE_LOG"

	LearningModeOnline      = "ONLINE"
	LearningModeApprentice  = "APPRENTICE"
	LearningModeLoggingOnly = "LOGGINGONLY"

	QueueModeDrop  = "DROP"
	QueueModeBlock = "BLOCK"
)

// Defaults referenced from more than one component.
const (
	DefaultProtocolVersion   = 2
	DefaultRefreshIntervalMs = 60000
	DefaultInitialEpsilon    = 0.2
	DefaultTasksLimit        = 16
	DefaultMaxHTTPRetries    = 4
	DefaultQueueMaxBytes     = 32 * 1024 * 1024
	DefaultBatchMaxBytes     = 1024 * 1024
	DefaultBatchFlushMs      = 1000
	DefaultShutdownTimeoutMs = 5000
)
