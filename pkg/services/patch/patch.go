package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/de-tools/costpilot/pkg/models/domain"
)

const armMetadataKey = "costopsRecommendations"

// Generate produces the updated file content for a recommendation,
// format-aware and idempotent: applying the same recommendation to
// already-patched content returns the input unchanged.
func Generate(format domain.IaCFormat, current string, rec domain.Recommendation) (string, error) {
	switch format {
	case domain.FormatTerraform, domain.FormatBicep:
		return appendCommentBlock(format, current, rec), nil
	case domain.FormatARM:
		return patchARM(current, rec)
	default:
		return "", fmt.Errorf("unsupported IaC format %q", format)
	}
}

// commentLeader returns the line-comment prefix for a format. Bicep has
// no `#` comments; everything else annotated this way takes `#`.
func commentLeader(format domain.IaCFormat) string {
	if format == domain.FormatBicep {
		return "//"
	}
	return "#"
}

// appendCommentBlock adds a comment annotation carrying the
// recommendation id as its idempotence marker. Content already carrying
// the marker is returned untouched.
func appendCommentBlock(format domain.IaCFormat, current string, rec domain.Recommendation) string {
	marker := fmt.Sprintf("costpilot:recommendation %s", rec.ID)
	if strings.Contains(current, marker) {
		return current
	}

	leader := commentLeader(format)
	var b strings.Builder
	b.WriteString(current)
	if current != "" && !strings.HasSuffix(current, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n", leader, marker))
	b.WriteString(fmt.Sprintf("%s %s\n", leader, rec.Title))
	b.WriteString(fmt.Sprintf("%s Estimated monthly impact: $%.2f\n", leader, rec.ImpactMonthly))
	return b.String()
}

// patchARM records the recommendation in the template's
// metadata.costopsRecommendations array. Malformed JSON degrades to the
// plain comment-block annotation instead of failing.
func patchARM(current string, rec domain.Recommendation) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(current), &doc); err != nil {
		return appendCommentBlock(domain.FormatARM, current, rec), nil
	}

	metadata, _ := doc["metadata"].(map[string]any)
	if metadata == nil {
		metadata = map[string]any{}
		doc["metadata"] = metadata
	}

	entries, _ := metadata[armMetadataKey].([]any)
	for _, raw := range entries {
		if entry, ok := raw.(map[string]any); ok && entry["id"] == rec.ID {
			return current, nil
		}
	}

	entries = append(entries, map[string]any{
		"id":            rec.ID,
		"title":         rec.Title,
		"description":   rec.Description,
		"impactMonthly": rec.ImpactMonthly,
	})
	metadata[armMetadataKey] = entries

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("serialize ARM template: %w", err)
	}
	return buf.String(), nil
}
