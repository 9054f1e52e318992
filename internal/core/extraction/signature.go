package extraction

import (
	"regexp"
	"strings"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	signaturePatternConfidence = 0.6
	signatureMissingConfidence = 0.2
	// NoSignature is reported when the docket carries no sign-off.
	NoSignature = "No signature detected"
)

var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:signed|received|authori[sz]ed)[ \t:]*by[ \t:]*([^\r\n]*)`),
	regexp.MustCompile(`(?i)signature[ \t:]*([^\r\n]*)`),
}

// Signature finds who signed for the delivery.
func (e *Extractor) Signature(text string, entities []domain.Entity) domain.HandwrittenNotes {
	if ent, ok := findEntity(entities, "signature", "signed_by"); ok && ent.Confidence >= e.entityThreshold {
		signedBy := strings.TrimSpace(ent.MentionText)
		if signedBy == "" {
			signedBy = "Signature Present"
		}
		return domain.HandwrittenNotes{
			SignedBy:         signedBy,
			Confidence:       domain.ClampConfidence(ent.Confidence),
			BoundingBox:      ent.BoundingBox,
			ExtractionMethod: domain.MethodHandwritingRecognition,
		}
	}

	for _, re := range signaturePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if name := strings.TrimSpace(m[1]); len(name) > 1 {
				return domain.HandwrittenNotes{
					SignedBy:         name,
					Confidence:       signaturePatternConfidence,
					ExtractionMethod: domain.MethodTextDetection,
				}
			}
		}
	}

	return domain.HandwrittenNotes{
		SignedBy:         NoSignature,
		Confidence:       signatureMissingConfidence,
		ExtractionMethod: domain.MethodTextDetection,
	}
}
