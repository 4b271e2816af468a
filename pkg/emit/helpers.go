// Package emit renders compiled workflows to the file formats
// described in spec.md §6: the canonical state-machine JSON, the
// visualization graph JSON, and the helper source module. None of
// these formats carry execution semantics of their own — emit only
// ever reads a finished wir.Workflow or cir.Helper list and produces
// text/bytes.
package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/cir"
)

// HelperModule pretty-prints every extracted helper as a function in
// the source surface syntax, each wrapped with the env calling
// convention from spec.md §4.8: a prologue binding env from the
// incoming event and an epilogue returning it. Helpers are separated
// by a single blank line, in the order Extract produced them — "
// dependency-irrelevant order" per spec.md §6, since no helper ever
// calls another.
func HelperModule(helpers []*cir.Helper) string {
	var b strings.Builder
	for i, h := range helpers {
		if i > 0 {
			b.WriteString("\n")
		}
		writeHelper(&b, h)
	}
	return b.String()
}

func writeHelper(b *strings.Builder, h *cir.Helper) {
	fmt.Fprintf(b, "def %s(event, context) {\n", h.Name)
	b.WriteString("    env = event[\"env\"]\n")
	for _, s := range h.Body {
		writeStmt(b, s, 1)
	}
	b.WriteString("    return {\"env\": env}\n")
	b.WriteString("}\n")
}

// RouterHelper renders the dispatcher function asfast.py's
// generate_router_func synthesizes when use_router_func is set: one
// Lambda, fanning a "func" field on the incoming event out to the
// right extracted helper by name. The original reaches for Python's
// globals() table to resolve funcName dynamically; that is exactly
// the "dynamic dispatch through first-class function values" spec.md
// §1 rules undefined behavior for, so this rebuild dispatches through
// an explicit if/else-if chain over the known helper names instead —
// every target is a concrete, checkable call.
func RouterHelper(name string, helperNames []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "def %s(event, context) {\n", name)
	b.WriteString("    funcName = event[\"func\"]\n")
	for i, hn := range helperNames {
		kw := "if"
		if i > 0 {
			kw = "} else if"
		}
		fmt.Fprintf(&b, "    %s (funcName == %s) {\n", kw, strconv.Quote(hn))
		fmt.Fprintf(&b, "        return %s(event, context)\n", hn)
	}
	if len(helperNames) > 0 {
		b.WriteString("    }\n")
	}
	b.WriteString("    return {\"env\": event[\"env\"]}\n")
	b.WriteString("}\n")
	return b.String()
}

func indent(n int) string { return strings.Repeat("    ", n) }

func writeStmt(b *strings.Builder, s ast.Stmt, depth int) {
	pad := indent(depth)
	switch n := s.(type) {
	case *ast.Assign:
		fmt.Fprintf(b, "%s%s = %s\n", pad, writeExpr(n.Target), writeExpr(n.Value))
	case *ast.ExprStmt:
		fmt.Fprintf(b, "%s%s\n", pad, writeExpr(n.Value))
	case *ast.If:
		fmt.Fprintf(b, "%sif (%s) {\n", pad, writeExpr(n.Test))
		for _, inner := range n.Then {
			writeStmt(b, inner, depth+1)
		}
		if len(n.Else) > 0 {
			fmt.Fprintf(b, "%s} else {\n", pad)
			for _, inner := range n.Else {
				writeStmt(b, inner, depth+1)
			}
		}
		fmt.Fprintf(b, "%s}\n", pad)
	case *ast.While:
		fmt.Fprintf(b, "%swhile (%s) {\n", pad, writeExpr(n.Test))
		for _, inner := range n.Body {
			writeStmt(b, inner, depth+1)
		}
		fmt.Fprintf(b, "%s}\n", pad)
	case *ast.Break:
		fmt.Fprintf(b, "%sbreak\n", pad)
	case *ast.Return:
		if n.HasValue {
			fmt.Fprintf(b, "%sreturn %s\n", pad, writeExpr(n.Value))
		} else {
			fmt.Fprintf(b, "%sreturn\n", pad)
		}
	case *ast.Try:
		fmt.Fprintf(b, "%stry {\n", pad)
		for _, inner := range n.Body {
			writeStmt(b, inner, depth+1)
		}
		fmt.Fprintf(b, "%s}", pad)
		for _, h := range n.Handlers {
			fmt.Fprintf(b, " except (%s)", strings.Join(h.Types, ", "))
			if h.As != "" {
				fmt.Fprintf(b, " as %s", h.As)
			}
			b.WriteString(" {\n")
			for _, inner := range h.Body {
				writeStmt(b, inner, depth+1)
			}
			fmt.Fprintf(b, "%s}", pad)
		}
		b.WriteString("\n")
	default:
		fmt.Fprintf(b, "%s// unprintable statement\n", pad)
	}
}

func writeExpr(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Literal:
		return writeLiteral(n)
	case *ast.Name:
		return n.Id
	case *ast.EnvRef:
		return fmt.Sprintf("env[%s]", strconv.Quote(n.Key))
	case *ast.Attribute:
		return writeExpr(n.Value) + "." + n.Attr
	case *ast.Call:
		return writeCall(n)
	case *ast.UnaryOp:
		if n.Op == "not" {
			return "not " + writeExpr(n.Operand)
		}
		return n.Op + writeExpr(n.Operand)
	case *ast.BinaryOp:
		return fmt.Sprintf("%s %s %s", writeExpr(n.Left), n.Op, writeExpr(n.Right))
	case *ast.Tuple:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = writeExpr(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.Dict:
		parts := make([]string, len(n.Entries))
		for i, entry := range n.Entries {
			parts[i] = fmt.Sprintf("%s: %s", strconv.Quote(entry.Key), writeExpr(entry.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ast.List:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = writeExpr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<?>"
	}
}

func writeLiteral(n *ast.Literal) string {
	switch n.Kind {
	case ast.LitInt:
		return strconv.FormatInt(n.Int, 10)
	case ast.LitFloat:
		return strconv.FormatFloat(n.Flt, 'g', -1, 64)
	case ast.LitString:
		return strconv.Quote(n.Str)
	case ast.LitBool:
		if n.Bool {
			return "true"
		}
		return "false"
	default:
		return "<?>"
	}
}

func writeCall(n *ast.Call) string {
	args := make([]string, 0, len(n.Args)+len(n.Keywords))
	for _, a := range n.Args {
		args = append(args, writeExpr(a))
	}
	for _, kw := range n.Keywords {
		args = append(args, fmt.Sprintf("%s = %s", kw.Name, writeExpr(kw.Value)))
	}
	return fmt.Sprintf("%s(%s)", writeExpr(n.Callee), strings.Join(args, ", "))
}
