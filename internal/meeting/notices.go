package meeting

import (
	"time"

	"github.com/yoomapp/yoom-web/internal/model"
)

const (
	DefaultDescription = "Instant Meeting"
	copyNoticeDuration = 3 * time.Second
)

var (
	noticeMeetingCreated = model.Notice{Title: "Meeting Created", Variant: model.NoticeDefault}
	noticeCreateFailed   = model.Notice{Title: "Failed to create Meeting", Variant: model.NoticeDefault}
	noticeSelectDateTime = model.Notice{Title: "Please select a date and time", Variant: model.NoticeDefault}
	noticeEnterLink      = model.Notice{Title: "Please enter a meeting link", Variant: model.NoticeDefault}

	noticeScheduledCopied = model.Notice{
		Title:       "📅 Scheduled Meeting Link Copied!",
		Description: "Share this link with participants. They can join at the scheduled time.",
		Variant:     model.NoticeDefault,
		Duration:    copyNoticeDuration,
	}
	noticeInstantCopied = model.Notice{
		Title:       "🎉 Meeting Link Copied!",
		Description: "Share this link with participants to invite them to your meeting.",
		Variant:     model.NoticeDefault,
		Duration:    copyNoticeDuration,
	}
	noticeCopyFailed = model.Notice{
		Title:       "❌ Copy Failed",
		Description: "Please try copying manually",
		Variant:     model.NoticeDestructive,
		Duration:    copyNoticeDuration,
	}
)
