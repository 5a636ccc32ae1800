package redisx

import "time"

const (
	// Cache dish detail: dish:{dish_id} -> dish JSON
	KeyDish = "dish:%d"

	// Cache order status: order_status:{order_number} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Cache popular dish listing: dishes:popular:{limit}
	KeyPopularDishes = "dishes:popular:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDishCache   = 5 * time.Minute
	TTLStatusCache = 5 * time.Minute
	TTLPopular     = 1 * time.Minute
	TTLDedup       = 48 * time.Hour
)
