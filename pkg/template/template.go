// Package template substitutes references to prior node outputs into node
// configuration values.
//
// Two reference grammars are applied, in order, to every string-valued config
// entry:
//
//	{{@nodeId:Label.fieldPath}}   qualified: looked up by sanitized node id
//	{{LabelOrType.fieldPath}}     unqualified: matched by display label, then
//	                              by node-type tag, both case-insensitively
//
// Resolution is a single pass with no recursive substitution and no escaping
// mechanism for literal braces. Unresolvable references are left untouched;
// references that resolve to a missing field path yield "".
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hookflow/hookflow/pkg/models"
)

var (
	qualifiedPattern   = regexp.MustCompile(`\{\{@([^:}]+):([^}]+)\}\}`)
	unqualifiedPattern = regexp.MustCompile(`\{\{([^@}][^}]*)\}\}`)
)

// Resolve returns a copy of config with both reference grammars substituted
// against outputs. Non-string values pass through unchanged. Resolve is pure:
// neither argument is mutated, and resolving an already-resolved config
// returns it unchanged.
func Resolve(config map[string]any, outputs map[string]models.NodeOutput) map[string]any {
	resolved := make(map[string]any, len(config))

	for key, value := range config {
		if str, ok := value.(string); ok {
			resolved[key] = resolveString(str, outputs)
		} else {
			resolved[key] = value
		}
	}

	return resolved
}

func resolveString(value string, outputs map[string]models.NodeOutput) string {
	value = qualifiedPattern.ReplaceAllStringFunc(value, func(match string) string {
		parts := qualifiedPattern.FindStringSubmatch(match)

		output, found := outputs[models.SanitizeNodeID(parts[1])]
		if !found {
			return match
		}

		return resolveReference(output, parts[2])
	})

	return unqualifiedPattern.ReplaceAllStringFunc(value, func(match string) string {
		ref := unqualifiedPattern.FindStringSubmatch(match)[1]

		label := ref

		if dotIndex := strings.Index(ref, "."); dotIndex != -1 {
			label = ref[:dotIndex]
		}

		output, found := outputByName(outputs, label)
		if !found {
			return match
		}

		return resolveReference(output, ref)
	})
}

// outputByName finds an output by display label first, falling back to the
// node-type tag. Both comparisons are case-insensitive. Keys are walked in
// sorted order so that resolution is deterministic when labels collide.
func outputByName(outputs map[string]models.NodeOutput, name string) (models.NodeOutput, bool) {
	keys := make([]string, 0, len(outputs))
	for key := range outputs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		if strings.EqualFold(outputs[key].Label, name) {
			return outputs[key], true
		}
	}

	for _, key := range keys {
		if strings.EqualFold(outputs[key].NodeType, name) {
			return outputs[key], true
		}
	}

	return models.NodeOutput{}, false
}

// resolveReference resolves "Label" or "Label.fieldPath" against one output.
// The label segment is only an addressing artifact at this point; the data is
// what gets substituted.
func resolveReference(output models.NodeOutput, ref string) string {
	dotIndex := strings.Index(ref, ".")
	if dotIndex == -1 {
		return stringify(output.Data)
	}

	if output.Data == nil {
		return ""
	}

	current := output.Data

	for _, field := range strings.Split(ref[dotIndex+1:], ".") {
		asMap, ok := current.(map[string]any)
		if !ok {
			return ""
		}

		current = asMap[field]
	}

	if current == nil {
		return ""
	}

	return stringify(current)
}

// stringify renders a substituted value: nil becomes "", composites become
// their JSON encoding, primitives their natural string form.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
