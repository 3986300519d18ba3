package audit

// Audit actions recorded by the service.
const (
	ActionSessionCreated    = "session_created"
	ActionAnalysisStarted   = "analysis_started"
	ActionAnalysisCompleted = "analysis_completed"
	ActionAnalysisFailed    = "analysis_failed"
	ActionAuthFailure       = "auth_failure"
)

// Audit resources.
const (
	ResourceSession = "analysis_session"
	ResourceAuth    = "auth"
)
