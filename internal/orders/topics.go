package orders

const (
	TopicOrderCreated   = "menu.order.created"
	TopicOrderStatus    = "menu.order.status"
	TopicOrderCancelled = "menu.order.cancelled"
	TopicOrderNotified  = "menu.order.notified"
)

// Partition key = order_number, supaya semua event 1 order maintain urutan.
func PartitionKey(orderNumber string) []byte { return []byte(orderNumber) }
