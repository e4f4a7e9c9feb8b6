package bus

// Event topics form the stable contract between publishers and observers.
// Payload keys per topic are an implicit schema; observers pattern-match
// on them, so keys must stay stable across releases.
const (
	TopicCaptureStarted = "capture.started"
	TopicCaptureStopped = "capture.stopped"
	TopicCaptureError   = "capture.error"

	TopicReplayRenderDetected = "replay.render.detected"

	TopicMuxStarted  = "mux.started"
	TopicMuxProgress = "mux.progress"
	TopicMuxDone     = "mux.done"
	TopicMuxFailed   = "mux.failed"

	TopicColorDone   = "color.done"
	TopicColorFailed = "color.failed"

	TopicUploadProgress = "upload.progress"
	TopicUploadDone     = "upload.done"
	TopicUploadFailed   = "upload.failed"

	TopicNotifySent   = "notify.sent"
	TopicNotifyFailed = "notify.failed"

	TopicAIOptionsReady = "ai.options.ready"

	TopicManifestUpdated = "manifest.updated"

	TopicUserNotification = "user.notification"
)
