package commands

import (
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/swoopingasaservice/discordbots/internal/database"
	"github.com/swoopingasaservice/discordbots/internal/metrics"
)

// handleSysinfo shows host, runtime, and bot statistics
func (h *Handler) handleSysinfo(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	// Defer; gathering CPU usage takes a second
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	embeds := []*discordgo.MessageEmbed{
		hostEmbed(),
		botEmbed(s),
	}

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &embeds,
	})
	return err
}

func hostEmbed() *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "🖥️ Host Statistics",
		Color:     0x00BFFF,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if hostInfo, err := host.Info(); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Host",
			Value: fmt.Sprintf("**Hostname:** `%s`\n**OS:** `%s/%s`\n**Uptime:** `%s`",
				hostInfo.Hostname,
				hostInfo.OS,
				hostInfo.Platform,
				formatDuration(time.Duration(hostInfo.Uptime)*time.Second)),
		})
	}

	cpuField := fmt.Sprintf("**Threads:** `%d`", runtime.NumCPU())
	if cpuPercent, err := cpu.Percent(time.Second, false); err == nil && len(cpuPercent) > 0 {
		cpuField += fmt.Sprintf("\n**Usage:** `%.2f%%`", cpuPercent[0])
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "CPU",
		Value:  cpuField,
		Inline: true,
	})

	if memInfo, err := mem.VirtualMemory(); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Memory",
			Value: fmt.Sprintf("**Used:** `%s / %s`\n**Usage:** `%.2f%%`",
				formatBytes(memInfo.Used),
				formatBytes(memInfo.Total),
				memInfo.UsedPercent),
			Inline: true,
		})
	}

	if diskInfo, err := disk.Usage("/"); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Disk",
			Value: fmt.Sprintf("**Used:** `%s / %s`\n**Usage:** `%.2f%%`",
				formatBytes(diskInfo.Used),
				formatBytes(diskInfo.Total),
				diskInfo.UsedPercent),
			Inline: true,
		})
	}

	return embed
}

func botEmbed(s *discordgo.Session) *discordgo.MessageEmbed {
	snap := metrics.Default().Snapshot()

	embed := &discordgo.MessageEmbed{
		Title: "🤖 Bot Statistics",
		Color: 0xFF1493,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Status",
				Value: fmt.Sprintf("**Uptime:** `%s`\n**Guilds:** `%d`\n**Latency:** `%dms`",
					formatDuration(snap.Uptime),
					len(s.State.Guilds),
					s.HeartbeatLatency().Milliseconds()),
				Inline: true,
			},
			{
				Name: "Moderation",
				Value: fmt.Sprintf("**Recorded:** `%d`\n**Duplicates skipped:** `%d`\n**Poll cycles:** `%d`",
					snap.ActionsRecorded,
					snap.DuplicatesSkipped,
					snap.PollCycles),
				Inline: true,
			},
			{
				Name: "Traffic",
				Value: fmt.Sprintf("**Commands served:** `%d`\n**Relay posts:** `%d` (`%d` failed)",
					snap.CommandsServed,
					snap.RelayPosts,
					snap.RelayFailures),
				Inline: true,
			},
			{
				Name: "Go Runtime",
				Value: fmt.Sprintf("**Version:** `%s`\n**Goroutines:** `%d`",
					runtime.Version(),
					runtime.NumGoroutine()),
				Inline: true,
			},
		},
	}

	if db := database.GetDB(); db != nil {
		if counts, err := db.Counts(); err == nil {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Archive",
				Value: fmt.Sprintf("**Messages:** `%d`\n**Voice events:** `%d`\n**Member events:** `%d`",
					counts.Messages,
					counts.VoiceEvents,
					counts.MemberEvents),
				Inline: true,
			})
		}
	}

	return embed
}

// Helper functions

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
