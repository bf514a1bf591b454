package service

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/d60-Lab/relation-engine/internal/service")

func paginate(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return (page - 1) * pageSize, pageSize
}
