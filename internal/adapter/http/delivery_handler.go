package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/swiftcart/checkout-api/internal/entity"
	"github.com/swiftcart/checkout-api/internal/fulfillment"
)

type DeliveryHandler struct {
	deliveries *fulfillment.Registry
}

func NewDeliveryHandler(deliveries *fulfillment.Registry) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries}
}

type shopReq struct {
	Name string  `json:"name" binding:"required"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	ETA  string  `json:"eta"`
}

type pointReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type createDeliveryReq struct {
	Shop        *shopReq  `json:"shop"`
	Destination *pointReq `json:"destination"`
	Items       int64     `json:"items"`
	TotalPrice  float64   `json:"totalPrice"`
}

type deliveryView struct {
	DeliveryID string        `json:"deliveryId"`
	Shop       string        `json:"shop"`
	Stage      string        `json:"stage"`
	Position   domain.LatLng `json:"position"`
	ETALabel   string        `json:"etaLabel"`
	Progress   float64       `json:"progress"`
	Items      int64         `json:"items"`
	TotalPrice float64       `json:"totalPrice"`
}

// CreateDelivery places an order and starts the tracker. Without a shop or
// destination there is no delivery to track: the caller gets an inactive
// view rather than an error.
func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	var req createDeliveryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	var shop *domain.Shop
	if req.Shop != nil {
		shop = &domain.Shop{
			Name:     req.Shop.Name,
			Location: domain.LatLng{Lat: req.Shop.Lat, Lng: req.Shop.Lng},
			ETALabel: req.Shop.ETA,
		}
	}
	var dest *domain.LatLng
	if req.Destination != nil {
		dest = &domain.LatLng{Lat: req.Destination.Lat, Lng: req.Destination.Lng}
	}

	t, err := h.deliveries.Create(shop, dest, req.Items, req.TotalPrice)
	if err != nil {
		// Only ErrMissingContext can come back here.
		c.JSON(http.StatusOK, gin.H{"state": "inactive"})
		return
	}
	c.JSON(http.StatusCreated, viewOfDelivery(t.Snapshot()))
}

func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	t, err := h.deliveries.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, viewOfDelivery(t.Snapshot()))
}

func (h *DeliveryHandler) CancelDelivery(c *gin.Context) {
	if err := h.deliveries.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func viewOfDelivery(sn fulfillment.Snapshot) deliveryView {
	return deliveryView{
		DeliveryID: sn.ID,
		Shop:       sn.ShopName,
		Stage:      sn.Stage.String(),
		Position:   sn.Position,
		ETALabel:   sn.ETALabel,
		Progress:   sn.Progress,
		Items:      sn.ItemCount,
		TotalPrice: sn.TotalPrice,
	}
}
