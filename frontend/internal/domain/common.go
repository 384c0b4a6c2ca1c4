package frontend_domain

// CommonTemplateData holds fields that are common to all page templates.
// Available in templates as .Common via the TemplateData wrapper.
type CommonTemplateData struct {
	Error      string
	Success    string
	Notices    []Notice
	CSRFToken  string // CSRF token for form submissions
	Validation ValidationData
}

// Notice is a controller message rendered above the flow.
type Notice struct {
	Level   string
	Code    string
	Message string
}

// ValidationData holds the upload limits shown next to the file input.
type ValidationData struct {
	MaxFileSizeBytes int64
	AllowedMimeTypes []string
}
