package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusPreparing  Status = "preparing"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// validNext: status hanya maju, cancel boleh dari semua non-terminal.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:  {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing:  {StatusDelivering: true, StatusCancelled: true},
	StatusDelivering: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Cancellable lists the statuses an order may be cancelled from.
func Cancellable() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusDelivering}
}

func IsValid(s Status) bool {
	_, ok := validNext[s]
	return ok
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}
