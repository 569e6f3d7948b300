package extract

// Format identifies a supported file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatTXT  Format = "txt"
	FormatDocx Format = "docx"
	FormatMD   Format = "md"
	FormatHTML Format = "html"
)

// Source is a sealed union over the document source variants. Exactly one
// variant exists per declared document type, so callers never juggle a
// type tag with three optional locator fields.
type Source interface {
	sourceKind() string
}

// TextSource carries inline text submitted directly by an administrator.
type TextSource struct {
	Content string
}

// FileSource points at an uploaded file persisted to a stable local path.
type FileSource struct {
	Path string
}

// WebsiteSource points at a live website to fetch and extract.
type WebsiteSource struct {
	URL string
}

// ImageSource points at an uploaded image. Text recovery from images is
// delegated to an external OCR collaborator; the pipeline rejects it.
type ImageSource struct {
	Path string
}

func (TextSource) sourceKind() string    { return "text" }
func (FileSource) sourceKind() string    { return "file" }
func (WebsiteSource) sourceKind() string { return "website" }
func (ImageSource) sourceKind() string   { return "image" }

// SupportedExtensions returns the file extensions the pipeline accepts.
func SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".docx", ".md", ".html", ".htm"}
}
