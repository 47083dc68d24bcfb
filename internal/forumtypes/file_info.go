package forumtypes

// FileInfo describes a stored file and how to reach it.
type FileInfo struct {
	URL      string `json:"url"`      // publicly reachable URL
	Path     string `json:"path"`     // path or identifier within the storage system
	Size     int64  `json:"size"`     // size in bytes
	MimeType string `json:"mimeType"` // MIME type of the file
	FileName string `json:"fileName"` // original file name
}
