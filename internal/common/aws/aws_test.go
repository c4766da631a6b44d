// internal/common/aws/aws_test.go
package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestMailer_Send(t *testing.T) {
	fake := &fakeSES{}
	m := NewMailer(fake, "admission@school.kr")

	id, err := m.Send(context.Background(), "applicant@example.com", "결과 안내", "합격을 축하합니다")
	require.NoError(t, err)

	assert.Equal(t, "ses-1", id)
	assert.Equal(t, []string{"applicant@example.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "admission@school.kr", aws.ToString(fake.input.Source))
	assert.Equal(t, "결과 안내", aws.ToString(fake.input.Message.Subject.Data))
	assert.Equal(t, "합격을 축하합니다", aws.ToString(fake.input.Message.Body.Text.Data))
}

func TestMailer_SendError(t *testing.T) {
	m := NewMailer(&fakeSES{err: errors.New("throttled")}, "admission@school.kr")

	_, err := m.Send(context.Background(), "a@example.com", "s", "b")
	assert.EqualError(t, err, "throttled")
}

func TestTexter_Send(t *testing.T) {
	fake := &fakeSNS{}
	tx := NewTexter(fake, "BSSM")

	id, err := tx.Send(context.Background(), "+821012345678", "1차 합격")
	require.NoError(t, err)

	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "+821012345678", aws.ToString(fake.input.PhoneNumber))
	assert.Equal(t, "BSSM", aws.ToString(fake.input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
	assert.Equal(t, "Transactional", aws.ToString(fake.input.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
}

func TestTexter_SendWithoutSenderID(t *testing.T) {
	fake := &fakeSNS{}

	_, err := NewTexter(fake, "").Send(context.Background(), "+821012345678", "msg")
	require.NoError(t, err)

	_, ok := fake.input.MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.False(t, ok)
}

func TestToE164(t *testing.T) {
	tests := map[string]string{
		"010-1234-5678":    "+821012345678",
		"01012345678":      "+821012345678",
		"+82 10 1234 5678": "+821012345678",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToE164(in), in)
	}
}
