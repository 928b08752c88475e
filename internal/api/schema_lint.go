// api/schema_lint.go
package api

import (
	"erdgen/internal/jpa"
)

// SchemaLint проверяет модель целиком. Пустой результат = пустой срез, не nil.
func (m *Model) SchemaLint() []jpa.Issue {
	issues := jpa.Lint(m.Entities)
	if issues == nil {
		issues = []jpa.Issue{}
	}
	return issues
}

// blockingIssues проблемы, которые в strict-режиме не дают подменить модель.
// Связь на неизвестную сущность не блокирует: такие связи рисуются как есть.
func blockingIssues(issues []jpa.Issue) []jpa.Issue {
	var out []jpa.Issue
	for _, it := range issues {
		if it.Code == jpa.IssueRelationTargetUnknown {
			continue
		}
		out = append(out, it)
	}
	return out
}
