package event

const OtpVerifiedDestination string = "otp_verified"
const OtpVerifiedDestinationConsumerNotification string = "otp_verified_notification"

type OtpVerifiedMessage struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Purpose  string `json:"purpose"`
}
