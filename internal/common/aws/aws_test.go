// internal/common/aws/aws_test.go
package aws

import (
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextEmail(t *testing.T) {
	in := PlainTextEmail("activities@mergington.edu", "emma@mergington.edu", "Signed up", "See you at Chess Club")

	assert.Equal(t, "activities@mergington.edu", awssdk.ToString(in.Source))
	assert.Equal(t, []string{"emma@mergington.edu"}, in.Destination.ToAddresses)
	assert.Equal(t, "Signed up", awssdk.ToString(in.Message.Subject.Data))
	require.NotNil(t, in.Message.Body.Text)
	assert.Equal(t, "See you at Chess Club", awssdk.ToString(in.Message.Body.Text.Data))
	assert.Nil(t, in.Message.Body.Html)
}

func TestTopicMessage(t *testing.T) {
	in := TopicMessage("arn:aws:sns:us-east-1:123456789012:enrollment", `{"type":"signup"}`,
		map[string]string{"event_type": "signup"})

	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:enrollment", awssdk.ToString(in.TopicArn))
	assert.Equal(t, `{"type":"signup"}`, awssdk.ToString(in.Message))
	require.Contains(t, in.MessageAttributes, "event_type")
	attr := in.MessageAttributes["event_type"]
	assert.Equal(t, "String", awssdk.ToString(attr.DataType))
	assert.Equal(t, "signup", awssdk.ToString(attr.StringValue))

	assert.Nil(t, TopicMessage("arn", "m", nil).MessageAttributes)
}
