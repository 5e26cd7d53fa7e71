package util

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// 捐款订单号格式：DON-<项目ID>-<随机串>
var donationOrderPattern = regexp.MustCompile(`^DON-\d+-\S+$`)

// ValidateDonationOrderID 校验捐款订单号格式
func ValidateDonationOrderID(fl validator.FieldLevel) bool {
	return donationOrderPattern.MatchString(fl.Field().String())
}
