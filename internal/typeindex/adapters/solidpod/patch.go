package solidpod

import (
	"errors"
	"fmt"
	"strings"

	"typeindex/internal/rdf/graph"
	"typeindex/internal/rdf/vocab"
)

// Patch formats accepted by config.Pod.PatchFormat.
const (
	PatchSPARQL = "sparql"
	PatchN3     = "n3"
)

var errEmptyPatch = errors.New("patch has no deletes and no inserts")

// EncodePatch renders deletes and inserts, both canonical N-Triples
// statements, as a PATCH body in the given format.
func EncodePatch(format string, deletes, inserts []string) (contentType string, body []byte, err error) {
	if len(deletes) == 0 && len(inserts) == 0 {
		return "", nil, errEmptyPatch
	}
	switch format {
	case PatchSPARQL, "":
		return graph.MediaSPARQL, []byte(sparqlUpdate(deletes, inserts)), nil
	case PatchN3:
		return graph.MediaN3, []byte(n3Patch(deletes, inserts)), nil
	default:
		return "", nil, fmt.Errorf("unknown patch format %q", format)
	}
}

func sparqlUpdate(deletes, inserts []string) string {
	var parts []string
	if len(deletes) > 0 {
		parts = append(parts, "DELETE DATA {\n"+block(deletes)+"}")
	}
	if len(inserts) > 0 {
		parts = append(parts, "INSERT DATA {\n"+block(inserts)+"}")
	}
	return strings.Join(parts, ";\n") + "\n"
}

func n3Patch(deletes, inserts []string) string {
	var sb strings.Builder
	sb.WriteString("@prefix solid: <" + vocab.SolidNamespace + ">.\n")
	sb.WriteString("_:patch a solid:InsertDeletePatch")
	if len(deletes) > 0 {
		sb.WriteString(";\n  solid:deletes {\n" + block(deletes) + "  }")
	}
	if len(inserts) > 0 {
		sb.WriteString(";\n  solid:inserts {\n" + block(inserts) + "  }")
	}
	sb.WriteString(".\n")
	return sb.String()
}

func block(statements []string) string {
	var sb strings.Builder
	for _, st := range statements {
		sb.WriteString("    ")
		sb.WriteString(strings.TrimSpace(st))
		sb.WriteByte('\n')
	}
	return sb.String()
}
