// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pkgbind/pkgbind/pkg/types"
)

// BindingNamespace is the name-based UUID namespace of binding UUIDs.
var BindingNamespace = uuid.MustParse("6f2b2c0e-8d47-5a8e-9c1b-3f5d7e2a4b60")

// DeriveBindingUUID returns the version 5 UUID of a binding tuple. Equal
// tuples yield equal UUIDs; parameter values are compared with their kind,
// so "1" and 1 differ.
func DeriveBindingUUID(query, typeName string, params map[string]any, language types.QueryLanguage) uuid.UUID {
	var sb strings.Builder
	sb.WriteString(query)
	sb.WriteByte(0)
	sb.WriteString(typeName)
	sb.WriteByte(0)
	sb.WriteString(language.OrDefault().String())

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteByte(0)
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(scalarToken(params[name]))
	}
	return uuid.NewSHA1(BindingNamespace, []byte(sb.String()))
}

func scalarToken(v any) string {
	if n, err := types.NormalizeScalar(v); err == nil {
		v = n
	}
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return fmt.Sprintf("bool:%t", x)
	case int64:
		return fmt.Sprintf("int:%d", x)
	case float64:
		return fmt.Sprintf("float:%g", x)
	case string:
		return "string:" + x
	default:
		return fmt.Sprintf("%T:%v", x, x)
	}
}
