package delivery

import (
	"context"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Sender hands a message to an outbound channel.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSender only logs messages; used when no channel is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, phone, message string) error {
	log.Printf("delivery: to=%s msg=%q", phone, message)
	return nil
}

type snsPublisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender sends SMS through AWS SNS.
type SNSSender struct {
	client snsPublisher
}

// NewSNSSender loads the default AWS credential chain for region.
func NewSNSSender(ctx context.Context, region string) (*SNSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSSender{client: sns.NewFromConfig(awsCfg)}, nil
}

// Send publishes to an E.164 number; phone is expected without the leading '+'.
func (s *SNSSender) Send(ctx context.Context, phone, message string) error {
	to := "+" + phone
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	})
	return err
}
