package jobs

type JobType string

const (
	// JobNotifyJobApplication tells a contractor that a worker applied.
	JobNotifyJobApplication JobType = "notify_job_application"
	// JobNotifyContactRequest tells a worker that a contractor accepted.
	JobNotifyContactRequest JobType = "notify_contact_request"
)

// IsValid checks that the job type is a known constant.
func (t JobType) IsValid() bool {
	switch t {
	case JobNotifyJobApplication, JobNotifyContactRequest:
		return true
	default:
		return false
	}
}
