package sqlast

import (
	"strconv"
	"strings"
)

// EncodeCanonical serializes a tree into a stable textual form capturing
// every semantic field. Two trees are structurally equal exactly when
// their encodings match.
func EncodeCanonical(n Node) string {
	var b strings.Builder
	encode(&b, n)
	return b.String()
}

// Equal reports structural equality of two trees.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return EncodeCanonical(a) == EncodeCanonical(b)
}

func encode(b *strings.Builder, n Node) {
	if n == nil {
		b.WriteString("~")
		return
	}

	b.WriteString(n.Kind().String())
	b.WriteByte('[')
	switch v := n.(type) {
	case *Select:
		if v.Distinct {
			b.WriteString("distinct")
		}
	case *SelectItem:
		b.WriteString(v.Alias)
	case *CTE:
		b.WriteString(v.Name)
	case *Table:
		b.WriteString(v.Name)
		b.WriteByte('|')
		b.WriteString(v.Alias)
	case *Join:
		b.WriteString(v.JoinKind.String())
	case *Subquery:
		b.WriteString(v.Alias)
	case *SetOp:
		b.WriteString(v.Op.String())
		if v.All {
			b.WriteString("|all")
		}
	case *Comparison:
		b.WriteString(v.Op.String())
	case *InList:
		if v.Negated {
			b.WriteString("not")
		}
	case *InSubquery:
		if v.Negated {
			b.WriteString("not")
		}
	case *Exists:
		if v.Negated {
			b.WriteString("not")
		}
	case *IsNull:
		if v.Negated {
			b.WriteString("not")
		}
	case *OrderItem:
		if v.Desc {
			b.WriteString("desc")
		}
	case *Limit:
		if v.HasCount {
			b.WriteString(strconv.FormatInt(v.Count, 10))
		}
		b.WriteByte('|')
		if v.HasOffset {
			b.WriteString(strconv.FormatInt(v.Offset, 10))
		}
	case *Aggregate:
		b.WriteString(v.Func)
		if v.Star {
			b.WriteString("|*")
		}
		if v.Distinct {
			b.WriteString("|distinct")
		}
	case *FuncCall:
		b.WriteString(v.Name)
		if v.Window {
			// child list mixes args, partition and order items; the arg
			// count keeps the encoding unambiguous
			b.WriteString("|over|a")
			b.WriteString(strconv.Itoa(len(v.Args)))
		}
	case *ColumnRef:
		b.WriteString(v.Table)
		b.WriteByte('|')
		b.WriteString(v.Name)
	case *Star:
		b.WriteString(v.Table)
	case *Literal:
		b.WriteString(v.Class.String())
		b.WriteByte('|')
		b.WriteString(v.Text)
	case *Cast:
		b.WriteString(v.Type)
	}
	b.WriteByte(']')

	children := n.Children()
	if len(children) == 0 {
		return
	}
	b.WriteByte('(')
	for i, c := range children {
		if i > 0 {
			b.WriteByte(',')
		}
		encode(b, c)
	}
	b.WriteByte(')')
}
