// internal/common/aws/sns.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the subset of *sns.Client the texter needs.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Texter sends transactional SMS through SNS.
type Texter struct {
	client   SNSService
	senderID string
}

func NewTexter(client SNSService, senderID string) *Texter {
	return &Texter{client: client, senderID: senderID}
}

// NewSNSTexter builds a Texter on a real SNS client.
func NewSNSTexter(cfg aws.Config, senderID string) *Texter {
	return NewTexter(sns.NewFromConfig(cfg), senderID)
}

// Send publishes message to a single E.164 phone number.
func (t *Texter) Send(ctx context.Context, phone, message string) (string, error) {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if t.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(t.senderID),
		}
	}

	out, err := t.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

// ToE164 converts a domestic Korean mobile number such as 010-1234-5678 to
// +821012345678. Numbers already starting with + are returned unchanged.
func ToE164(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(phone) > 0 && phone[0] == '+' {
		return "+" + string(digits)
	}
	if len(digits) > 0 && digits[0] == '0' {
		return "+82" + string(digits[1:])
	}
	return "+" + string(digits)
}
