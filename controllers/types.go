package controllers

import "github.com/roadrunner/api-go/services"

type StandardResponse struct {
	Success    bool            `json:"success"`
	Data       interface{}     `json:"data,omitempty"`
	Meta       interface{}     `json:"meta,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Message    string          `json:"message,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

func newPaginationMeta(page services.Page) *PaginationMeta {
	pages := 0
	if page.Size > 0 {
		pages = int((page.Total + int64(page.Size) - 1) / int64(page.Size))
	}
	return &PaginationMeta{
		CurrentPage: page.Number,
		PageSize:    page.Size,
		TotalItems:  page.Total,
		TotalPages:  pages,
	}
}
