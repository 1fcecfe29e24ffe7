package email

const (
	subjectLeadAssignedFmt        = "New lead assigned: %s"
	subjectAppointmentReminderFmt = "Upcoming appointment: %s"
	subjectTaskDueFmt             = "Task due: %s"
)
