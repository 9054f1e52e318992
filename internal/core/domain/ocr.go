package domain

// Vertex is a point of a bounding polygon, usually normalized to the page size.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type BoundingBox struct {
	Vertices []Vertex `json:"vertices"`
}

// Entity is a typed span reported by the document-understanding provider.
type Entity struct {
	Type        string       `json:"type"`
	MentionText string       `json:"mentionText"`
	Confidence  float64      `json:"confidence"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
	Properties  []Entity     `json:"properties,omitempty"`
}

// OCRDocument is the text and entity output of a provider entity pass.
type OCRDocument struct {
	Text      string   `json:"text"`
	Entities  []Entity `json:"entities"`
	PageCount int      `json:"pageCount"`
}

// DocumentLayout is the structural summary of a provider layout pass.
type DocumentLayout struct {
	DocumentType string  `json:"documentType"`
	PageCount    int     `json:"pageCount"`
	Tables       int     `json:"tables"`
	FormFields   int     `json:"formFields"`
	Paragraphs   int     `json:"paragraphs"`
	Confidence   float64 `json:"confidence"`
	FallbackMode bool    `json:"fallbackMode"`
}

// DocumentInput is a binary document handed to the pipeline.
type DocumentInput struct {
	Content  []byte
	MimeType string
	Filename string
}
