package domain

import "time"

// DriverRole is the profile role that marks a user as a driver.
const DriverRole = "motorista"

// DriverRegisteredFlag is the nested profile flag used to find drivers
// whose role was never set.
const DriverRegisteredFlag = "motoristaData.isRegistered"

// MoneyState is the monetary position of a driver with the platform.
type MoneyState struct {
	Balance float64 // Owed to the driver
	Debt    float64 // Owed by the driver
}

// Driver represents a driver profile as stored.
type Driver struct {
	ID         string
	Name       string
	Role       string
	Registered bool
	Money      MoneyState
	UpdatedAt  time.Time
}
