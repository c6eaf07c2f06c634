package entity

type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusBoarding  TripStatus = "boarding"
	TripStatusDeparted  TripStatus = "departed"
	TripStatusArrived   TripStatus = "arrived"
	TripStatusCancelled TripStatus = "cancelled"
	TripStatusDelayed   TripStatus = "delayed"
)

type Trip struct {
	TripID             string     `json:"tripId"`
	RouteID            string     `json:"routeId"`
	VehicleID          string     `json:"vehicleId,omitempty"`
	DriverID           string     `json:"driverId,omitempty"`
	ScheduledDeparture Timestamp  `json:"scheduledDeparture"`
	ScheduledArrival   Timestamp  `json:"scheduledArrival"`
	Status             TripStatus `json:"status"`
	AvailableSeats     int        `json:"availableSeats"`
	TotalSeats         int        `json:"totalSeats"`
	CurrentPrice       float64    `json:"currentPrice"`
}

func (t Trip) IsFull() bool {
	return t.AvailableSeats <= 0
}
