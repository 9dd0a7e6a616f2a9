// Package nosecretlog defines an analyzer that reports password material
// passed to logging calls.
package nosecretlog

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports calls to logging methods (Debug*, Info*, Warn*, Error*,
// Fatal*, Panic*, Print*) whose arguments reference a Password or
// PasswordHash field.
var Analyzer = &analysis.Analyzer{
	Name: "nosecretlog",
	Doc:  "prohibits passing Password or PasswordHash fields to logging calls",
	Run:  run,
}

var logMethodPrefixes = []string{"Debug", "Info", "Warn", "Error", "Fatal", "Panic", "Print"}

var secretFields = map[string]bool{
	"Password":     true,
	"PasswordHash": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || !isLogMethod(sel.Sel.Name) {
				return true
			}

			for _, arg := range call.Args {
				if field := findSecretField(arg); field != "" {
					pass.Reportf(arg.Pos(), "avoid logging %s", field)
				}
			}

			return true
		})
	}
	return nil, nil
}

func isLogMethod(name string) bool {
	for _, prefix := range logMethodPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

func findSecretField(expr ast.Expr) string {
	var found string
	ast.Inspect(expr, func(n ast.Node) bool {
		if found != "" {
			return false
		}
		sel, ok := n.(*ast.SelectorExpr)
		if ok && secretFields[sel.Sel.Name] {
			found = sel.Sel.Name
			return false
		}
		return true
	})

	return found
}
