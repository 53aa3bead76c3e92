package kyc

import (
	"strings"

	"faceid/cmd/internal/domain/entity"
)

// StatusFromSegments derives the coarse KYC status from the vendor's
// profile segments. This is a three-way classifier: an approval
// segment yields Approved, no segments at all means the flow has not
// concluded yet (Pending), and segments that carry no approval mark
// an unrecognized outcome (Unknown).
func StatusFromSegments(segments []*entity.Segment) entity.KycStatus {
	for _, seg := range segments {
		if isApprovalSegment(seg.Name) {
			return entity.KycApproved
		}
	}

	if len(segments) == 0 {
		return entity.KycPending
	}
	return entity.KycUnknown
}

// isApprovalSegment looks for "aprovado" in the segment name, guarding
// against negated forms ("nao aprovado", "reprovado") that contain the
// same substring.
func isApprovalSegment(name string) bool {
	n := Normalize(name)
	if strings.Contains(n, "reprovado") || strings.Contains(n, "nao aprovado") {
		return false
	}
	return strings.Contains(n, "aprovado")
}
