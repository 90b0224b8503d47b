package config

// Map of job names to job functions
type CronJob struct {
	Schedule string
	Job      func(...string)
}

// CronJobs holds statically wired jobs. The marketplace jobs register
// themselves through the cron registry instead, so they can reach this
// package for the database handle without an import cycle.
var CronJobs = map[string]CronJob{
	// Add more jobs here
}
