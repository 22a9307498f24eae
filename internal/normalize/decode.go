package normalize

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/beauty-storefront/internal/model"
)

var (
	idKeys        = []string{"id", "_id"}
	createdAtKeys = []string{"createdAt", "created_at", "orderDate", "date", "timestamp"}
	orderTotal    = []string{"total", "totalAmount", "total_amount", "totalPrice", "amount"}
	orderItems    = []string{"items", "products", "cartItems", "orderItems"}
	shippingKeys  = []string{"shippingAddress", "shipping_info", "shippingInfo", "shipping", "address"}
)

func resolveID(id string, d document) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		return id, nil
	}
	if id = d.str(idKeys...); id != "" {
		return id, nil
	}
	return "", malformed("missing id")
}

// ParseStatus приводит написание статуса к каноническому.
// Пустой статус считается pending.
func ParseStatus(raw string) model.OrderStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	switch s {
	case "":
		return model.OrderStatusPending
	case "outfordelivery":
		return model.OrderStatusOutForDelivery
	case "canceled":
		return model.OrderStatusCancelled
	}
	return model.OrderStatus(s)
}

// DecodeOrder приводит документ заказа к model.Order. Если id пуст,
// идентификатор берётся из документа.
func DecodeOrder(id string, data []byte) (model.Order, error) {
	d, err := parse(data)
	if err != nil {
		return model.Order{}, err
	}

	o := model.Order{Status: ParseStatus(d.str("status", "orderStatus"))}
	if o.ID, err = resolveID(id, d); err != nil {
		return model.Order{}, err
	}

	created, ok, err := d.timestamp(createdAtKeys...)
	if err != nil {
		return model.Order{}, err
	}
	if !ok {
		return model.Order{}, malformed("order %s: missing createdAt", o.ID)
	}
	o.CreatedAt = created

	if o.Items, err = decodeItems(d); err != nil {
		return model.Order{}, err
	}

	total, ok, err := d.amount(orderTotal...)
	if err != nil {
		return model.Order{}, err
	}
	if !ok {
		total = decimal.Zero
		for _, item := range o.Items {
			total = total.Add(item.Subtotal())
		}
	}
	o.Total = total

	o.Shipping = decodeShipping(d)

	if o.StatusHistory, err = decodeHistory(d); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func decodeItems(d document) ([]model.LineItem, error) {
	raws, err := d.list(orderItems...)
	if err != nil {
		return nil, err
	}

	items := make([]model.LineItem, 0, len(raws))
	for _, raw := range raws {
		var item document
		if err := json.Unmarshal(raw, &item); err != nil || item == nil {
			return nil, malformed("order item is not an object")
		}

		price, _, err := item.amount("price", "unitPrice", "unit_price")
		if err != nil {
			return nil, err
		}
		qty, ok, err := item.integer("quantity", "qty", "count")
		if err != nil {
			return nil, err
		}
		if !ok {
			qty = 1
		}

		items = append(items, model.LineItem{
			ProductID: item.str("productId", "product_id", "id"),
			Name:      item.str("name", "title", "productName"),
			Price:     price,
			Quantity:  qty,
			Category:  item.str("category", "categoryId", "category_id"),
		})
	}
	return items, nil
}

func decodeShipping(d document) model.Shipping {
	s := d.sub(shippingKeys...)
	if s == nil {
		s = document{}
	}
	sh := model.Shipping{
		City:  s.str("city", "City", "ville"),
		Phone: s.str("phone", "phoneNumber", "tel"),
		Name:  s.str("name", "fullName", "full_name"),
	}
	// в ранних версиях оформления поля доставки лежали в корне документа
	if sh.City == "" {
		sh.City = d.str("city")
	}
	if sh.Phone == "" {
		sh.Phone = d.str("phone", "customerPhone")
	}
	if sh.Name == "" {
		sh.Name = d.str("customerName")
	}
	return sh
}

func decodeHistory(d document) ([]model.StatusChange, error) {
	raws, err := d.list("statusHistory", "status_history", "history")
	if err != nil {
		return nil, err
	}

	history := make([]model.StatusChange, 0, len(raws))
	for _, raw := range raws {
		var entry document
		if err := json.Unmarshal(raw, &entry); err != nil || entry == nil {
			return nil, malformed("status history entry is not an object")
		}
		at, _, err := entry.timestamp("timestamp", "date", "at", "changedAt")
		if err != nil {
			return nil, err
		}
		history = append(history, model.StatusChange{
			Status:    ParseStatus(entry.str("status")),
			Timestamp: at,
			Note:      entry.str("note", "comment", "reason"),
		})
	}
	return history, nil
}

// DecodeCustomer приводит документ покупателя к model.Customer.
// Отсутствующий avgOrderValue вычисляется как totalSpent / orderCount.
func DecodeCustomer(id string, data []byte) (model.Customer, error) {
	d, err := parse(data)
	if err != nil {
		return model.Customer{}, err
	}

	c := model.Customer{
		Name:  d.str("name", "displayName", "fullName"),
		Email: d.str("email"),
		Phone: d.str("phone", "phoneNumber"),
		City:  d.str("city"),
		Notes: d.str("notes", "adminNotes"),
	}
	if c.ID, err = resolveID(id, d); err != nil {
		return model.Customer{}, err
	}

	count, _, err := d.integer("orderCount", "ordersCount", "totalOrders")
	if err != nil {
		return model.Customer{}, err
	}
	if count < 0 {
		return model.Customer{}, malformed("customer %s: negative orderCount", c.ID)
	}
	c.OrderCount = count

	if c.TotalSpent, _, err = d.amount("totalSpent", "total_spent", "totalSpend"); err != nil {
		return model.Customer{}, err
	}

	last, ok, err := d.timestamp("lastOrderDate", "lastOrderAt", "last_order_date")
	if err != nil {
		return model.Customer{}, err
	}
	if ok {
		c.LastOrderDate = &last
	}

	avg, ok, err := d.amount("avgOrderValue", "averageOrderValue")
	if err != nil {
		return model.Customer{}, err
	}
	if !ok && c.OrderCount > 0 {
		avg = c.TotalSpent.Div(decimal.NewFromInt(int64(c.OrderCount))).Round(2)
	}
	c.AvgOrderValue = avg
	return c, nil
}

// ParseCouponType приводит написание типа купона к каноническому.
func ParseCouponType(raw string) model.CouponType {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	switch s {
	case "percent", "pct":
		return model.CouponTypePercentage
	case "flat", "amount":
		return model.CouponTypeFixed
	case "freeshipping", "shipping":
		return model.CouponTypeFreeShipping
	}
	return model.CouponType(s)
}

// DecodeCoupon приводит документ купона к model.Coupon. Код приводится
// к верхнему регистру, isActive по умолчанию true.
func DecodeCoupon(id string, data []byte) (model.Coupon, error) {
	d, err := parse(data)
	if err != nil {
		return model.Coupon{}, err
	}

	c := model.Coupon{
		Code: strings.ToUpper(d.str("code", "couponCode")),
		Type: ParseCouponType(d.str("type", "discountType")),
	}
	if c.Code == "" {
		return model.Coupon{}, malformed("coupon: missing code")
	}
	if c.ID = strings.TrimSpace(id); c.ID == "" {
		c.ID = d.str(idKeys...)
	}
	if c.ID == "" {
		c.ID = c.Code
	}

	value, ok, err := d.amount("value", "discount", "discountValue")
	if err != nil {
		return model.Coupon{}, err
	}
	if ok {
		c.Value = &value
	}

	if c.MinOrder, _, err = d.amount("minOrder", "minOrderAmount", "minimumOrder", "min_order"); err != nil {
		return model.Coupon{}, err
	}

	maxDiscount, ok, err := d.amount("maxDiscount", "max_discount")
	if err != nil {
		return model.Coupon{}, err
	}
	if ok {
		c.MaxDiscount = &maxDiscount
	}

	limit, ok, err := d.integer("usageLimit", "maxUses", "usage_limit")
	if err != nil {
		return model.Coupon{}, err
	}
	if ok {
		c.UsageLimit = &limit
	}

	if c.UsageCount, _, err = d.integer("usageCount", "usedCount", "usage_count"); err != nil {
		return model.Coupon{}, err
	}

	expiry, ok, err := d.timestamp("expiry", "expiresAt", "expiryDate", "expirationDate")
	if err != nil {
		return model.Coupon{}, err
	}
	if ok {
		c.Expiry = &expiry
	}

	c.IsActive = true
	if active, ok := d.boolean("isActive", "active"); ok {
		c.IsActive = active
	}
	return c, nil
}

// DecodeProduct приводит документ товара к model.Product.
func DecodeProduct(id string, data []byte) (model.Product, error) {
	d, err := parse(data)
	if err != nil {
		return model.Product{}, err
	}

	p := model.Product{
		Name:         d.str("name", "title"),
		Category:     d.str("category", "categoryId", "category_id"),
		StoredStatus: model.ProductStatus(strings.ToUpper(d.str("status"))),
	}
	if p.ID, err = resolveID(id, d); err != nil {
		return model.Product{}, err
	}

	if p.Price, _, err = d.amount("price"); err != nil {
		return model.Product{}, err
	}
	if p.Stock, _, err = d.integer("stock", "stockQuantity", "quantity", "inventory"); err != nil {
		return model.Product{}, err
	}

	threshold, ok, err := d.integer("lowStockThreshold", "low_stock_threshold")
	if err != nil {
		return model.Product{}, err
	}
	if !ok {
		threshold = model.DefaultLowStockThreshold
	}
	p.LowStockThreshold = threshold

	if published, ok := d.boolean("published", "isPublished"); ok {
		p.Published = published
	} else {
		p.Published = p.StoredStatus == model.ProductStatusActive || p.StoredStatus == "PUBLISHED"
	}

	if p.Images, err = decodeImages(d); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// decodeImages понимает список строк и список объектов {src} или {url}.
func decodeImages(d document) ([]model.Image, error) {
	raws, err := d.list("images", "gallery")
	if err != nil {
		return nil, err
	}
	if raws == nil {
		if src := d.str("image", "imageUrl"); src != "" {
			return []model.Image{{Src: src}}, nil
		}
		return []model.Image{}, nil
	}

	images := make([]model.Image, 0, len(raws))
	for _, raw := range raws {
		var src string
		if err := json.Unmarshal(raw, &src); err == nil {
			if src = strings.TrimSpace(src); src != "" {
				images = append(images, model.Image{Src: src})
			}
			continue
		}
		var obj document
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return nil, malformed("image is neither string nor object")
		}
		if src := obj.str("src", "url"); src != "" {
			images = append(images, model.Image{Src: src})
		}
	}
	return images, nil
}
