package handler

import "restaurant-admin/internal/microservices/catalog/service"

type Handler struct {
	ProductHandler *ProductHandler
}

func New(svc service.CatalogServiceInterface) *Handler {
	return &Handler{
		ProductHandler: NewProductHandler(svc),
	}
}
