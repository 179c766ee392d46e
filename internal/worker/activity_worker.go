package worker

import (
	"github.com/jobappid/verify-portal/internal/service"
)

// StartActivityWorker registers activity handlers.
func StartActivityWorker(activity *service.ActivityService) {
	if activity == nil {
		return
	}
	activity.RegisterHandlers()
}
