// Package chat joins the configured Twitch channel over IRC and feeds every
// message to the activity tracker so the coach can find good moments for
// reminders. It does not record or persist anything.
//
// It provides two entrypoints:
//   - Monitor.Run: connects to Twitch IRC, forwards each PRIVMSG to the
//     tracker, and handles the moderator command surface (!reset, !timers,
//     !uptime). The bot's own messages never reach the tracker.
//   - StartLiveWatcher: polls Twitch Helix for the channel's live status and
//     re-anchors the reminder timers to the broadcast start when the channel
//     goes live, so "45 minutes into the stream" means the stream and not the
//     process.
//
// Credentials: the IRC client requires a bot username and a user OAuth token
// with chat:read (chat:edit when announcing reminders in chat). The live
// watcher additionally needs an app client id/secret and is skipped without
// them.
package chat
