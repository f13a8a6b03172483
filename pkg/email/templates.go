package email

import "fmt"

// VerificationCodeBody renders the HTML body for the account verification
// code email.
func VerificationCodeBody(code int) string {
	return fmt.Sprintf(`
<div style="background-color: #000; color: #fff; font-family: Arial, sans-serif; padding: 20px; text-align: center; border-radius: 10px; max-width: 600px; margin: auto;">
  <h2 style="color: #fff; font-size: 24px;">Verification Code</h2>
  <p style="font-size: 16px; color: #ccc; line-height: 1.5;">
    Thank you for using our service! Please use the verification code below to proceed with your request:
  </p>
  <div style="background-color: #222; padding: 15px; border-radius: 5px; margin: 20px auto; max-width: 300px;">
    <p style="font-size: 24px; font-weight: bold; margin: 0; color: #fff;">%06d</p>
  </div>
  <p style="font-size: 14px; color: #bbb; line-height: 1.5;">
    If you did not request this code, please ignore this email or contact support.
  </p>
</div>`, code)
}

// PasswordResetBody renders the HTML body for the password reset email.
// resetURL must already embed the raw reset token.
func PasswordResetBody(resetURL string) string {
	return fmt.Sprintf(`
<h1>Password Reset Request</h1>
<p>Please go to this link to reset your password:</p>
<a href="%s" clicktracking=off>%s</a>`, resetURL, resetURL)
}
