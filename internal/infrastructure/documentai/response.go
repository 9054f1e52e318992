package documentai

import "github.com/kirillkom/docket-compliance/internal/core/domain"

type processResponse struct {
	Document documentPayload `json:"document"`
}

type documentPayload struct {
	Text     string          `json:"text"`
	Pages    []pagePayload   `json:"pages"`
	Entities []entityPayload `json:"entities"`
}

type pagePayload struct {
	PageNumber int   `json:"pageNumber"`
	Tables     []any `json:"tables"`
	FormFields []any `json:"formFields"`
	Paragraphs []any `json:"paragraphs"`
}

type entityPayload struct {
	Type        string          `json:"type"`
	MentionText string          `json:"mentionText"`
	Confidence  float64         `json:"confidence"`
	PageAnchor  *pageAnchor     `json:"pageAnchor"`
	Properties  []entityPayload `json:"properties"`
}

type pageAnchor struct {
	PageRefs []struct {
		BoundingPoly struct {
			Vertices           []vertexPayload `json:"vertices"`
			NormalizedVertices []vertexPayload `json:"normalizedVertices"`
		} `json:"boundingPoly"`
	} `json:"pageRefs"`
}

type vertexPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (e entityPayload) toDomain() domain.Entity {
	out := domain.Entity{
		Type:        e.Type,
		MentionText: e.MentionText,
		Confidence:  domain.ClampConfidence(e.Confidence),
		BoundingBox: e.boundingBox(),
	}
	for _, prop := range e.Properties {
		out.Properties = append(out.Properties, prop.toDomain())
	}
	return out
}

// boundingBox prefers normalized vertices of the first page reference.
func (e entityPayload) boundingBox() *domain.BoundingBox {
	if e.PageAnchor == nil || len(e.PageAnchor.PageRefs) == 0 {
		return nil
	}
	poly := e.PageAnchor.PageRefs[0].BoundingPoly
	vertices := poly.NormalizedVertices
	if len(vertices) == 0 {
		vertices = poly.Vertices
	}
	if len(vertices) == 0 {
		return nil
	}
	box := &domain.BoundingBox{Vertices: make([]domain.Vertex, 0, len(vertices))}
	for _, v := range vertices {
		box.Vertices = append(box.Vertices, domain.Vertex{X: v.X, Y: v.Y})
	}
	return box
}
