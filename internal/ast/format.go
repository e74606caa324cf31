package ast

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

// Format renders a program as indented C++Lite-like source. Tagged
// operators print by their tag, so a transformed tree shows every
// conversion the evaluator will perform.
func Format(p *Program) string {
	var sb strings.Builder

	for _, g := range p.Globals {
		fmt.Fprintf(&sb, "%s;\n", g)
	}

	for i, f := range p.Functions {
		if i > 0 || len(p.Globals) > 0 {
			sb.WriteString("\n")
		}

		formatFunction(&sb, f)
	}

	return sb.String()
}

func formatFunction(sb *strings.Builder, f *Function) {
	fmt.Fprintf(sb, "%s %s(%s) {\n", f.ReturnType, f.Name, f.Params)

	for _, l := range f.Locals {
		fmt.Fprintf(sb, "%s%s;\n", indentUnit, l)
	}

	if f.Body != nil {
		for _, m := range f.Body.Members {
			formatStatement(sb, m, 1)
		}
	}

	sb.WriteString("}\n")
}

func formatStatement(sb *strings.Builder, s Statement, depth int) {
	indent := strings.Repeat(indentUnit, depth)

	switch s := s.(type) {
	case *Block:
		sb.WriteString(indent + "{\n")

		for _, m := range s.Members {
			formatStatement(sb, m, depth+1)
		}

		sb.WriteString(indent + "}\n")
	case *Conditional:
		fmt.Fprintf(sb, "%sif (%s)\n", indent, s.Test)
		formatNested(sb, s.Then, depth)

		if s.Else != nil {
			sb.WriteString(indent + "else\n")
			formatNested(sb, s.Else, depth)
		}
	case *Loop:
		fmt.Fprintf(sb, "%swhile (%s)\n", indent, s.Test)
		formatNested(sb, s.Body, depth)
	default:
		sb.WriteString(indent + s.String() + "\n")
	}
}

// formatNested keeps a braced branch at the parent's depth.
func formatNested(sb *strings.Builder, s Statement, depth int) {
	if _, ok := s.(*Block); ok {
		formatStatement(sb, s, depth)
		return
	}

	formatStatement(sb, s, depth+1)
}
