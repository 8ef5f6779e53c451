package config

import "fmt"

// RunConfig fixes the temporal frame of one planning run.
type RunConfig struct {
	// WeekDays is the full planning week length.
	WeekDays int `json:"week_days"`
	// CurrentDay is the number of already elapsed days. The optimization
	// horizon is WeekDays - CurrentDay.
	CurrentDay int `json:"current_day"`
	// StepsPerHour is the time-series resolution.
	StepsPerHour int `json:"steps_per_hour"`
	// ServiceHours are the hours of day at which the service level is
	// measured.
	ServiceHours []int `json:"service_hours"`
}

func (c *RunConfig) SetDefaults() {
	if c.WeekDays <= 0 {
		c.WeekDays = 7
	}
	if c.StepsPerHour <= 0 {
		c.StepsPerHour = 3
	}
	if len(c.ServiceHours) == 0 {
		c.ServiceHours = []int{7, 9, 12, 17, 19}
	}
}

func (c RunConfig) Validate() error {
	if c.CurrentDay < 0 || c.CurrentDay >= c.WeekDays {
		return fmt.Errorf("current_day %d out of week of %d days", c.CurrentDay, c.WeekDays)
	}
	h := c.Horizon()
	if h > 16 {
		return fmt.Errorf("horizon %d too long for exhaustive pattern enumeration", h)
	}
	for _, s := range c.ServiceHours {
		if s < 0 || s >= 24 {
			return fmt.Errorf("service hour %d out of range", s)
		}
	}
	return nil
}

// Horizon is the number of remaining planning days.
func (c RunConfig) Horizon() int { return c.WeekDays - c.CurrentDay }

// StepsPerDay is the number of time-series samples per day.
func (c RunConfig) StepsPerDay() int { return 24 * c.StepsPerHour }

// ServiceSteps maps the service hours to trajectory indices.
func (c RunConfig) ServiceSteps() []int {
	out := make([]int, len(c.ServiceHours))
	for i, h := range c.ServiceHours {
		out[i] = h * c.StepsPerHour
	}
	return out
}
