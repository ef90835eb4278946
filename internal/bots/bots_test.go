package bots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBot(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name      string
		userAgent string
		want      bool
	}{
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true},
		{"bingbot", "Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)", true},
		{"slack preview", "Slackbot-LinkExpanding 1.0 (+https://api.slack.com/robots)", true},
		{"facebook preview", "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)", true},
		{"whatsapp preview", "WhatsApp/2.23.20.0", true},
		{"case insensitive", "GOOGLEBOT", true},
		{"substring in larger ua", "something googlebot something", true},

		{"chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", false},
		{"firefox", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", false},
		{"curl", "curl/8.4.0", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsBot(tt.userAgent))
		})
	}
}

func TestIsBot_ExtraSignatures(t *testing.T) {
	d := NewDetector("MyCustomBot", "  spaced-bot  ", "")

	assert.True(t, d.IsBot("MyCustomBot/1.0"))
	assert.True(t, d.IsBot("mycustombot/1.0"), "extras match case-insensitively")
	assert.True(t, d.IsBot("spaced-bot agent"))
	assert.False(t, d.IsBot("unrelated/1.0"))
}

func TestIsBot_AllDefaultSignatures(t *testing.T) {
	d := NewDetector()

	for _, sig := range DefaultSignatures {
		assert.True(t, d.IsBot("prefix "+sig+" suffix"), "signature %q should match", sig)
	}
}
