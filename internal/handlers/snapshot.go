package handlers

import (
	"sort"

	"github.com/l3nnardwlg/echoboard/internal/handlers/dto"
	"github.com/l3nnardwlg/echoboard/internal/models"
	ws "github.com/l3nnardwlg/echoboard/internal/websocket"
)

const (
	snapshotMessageLimit = 200
	snapshotLogLimit     = 25
	groupHistoryLimit    = 120
	dmHistoryLimit       = 200
)

// buildBoardState собирает консистентный снапшот доски для
// входящего соединения: карточки в явном порядке, последние 200
// живых сообщений (старые первыми) с агрегатами реакций, участники
// с ролями, хвост журнала активности и presence-истории, набор
// каналов и роль самого запросившего.
func (r *EventRouter) buildBoardState(board *models.Board, client *ws.Client) (*dto.BoardState, error) {
	cards, err := r.db.ListCards(board.ID)
	if err != nil {
		return nil, err
	}

	messages, err := r.db.ListRecentMessages(board.ID, snapshotMessageLimit)
	if err != nil {
		return nil, err
	}

	messageIDs := make([]uint, len(messages))
	for i, m := range messages {
		messageIDs[i] = m.ID
	}
	reactions, err := r.db.TallyMessageReactionsBulk(messageIDs)
	if err != nil {
		return nil, err
	}

	members, err := r.db.ListMembers(board.ID)
	if err != nil {
		return nil, err
	}

	activity, err := r.db.ListActivity(board.ID, snapshotLogLimit)
	if err != nil {
		return nil, err
	}

	history, err := r.db.ListPresenceHistory(board.ID, snapshotLogLimit)
	if err != nil {
		return nil, err
	}

	cardResponses := make([]dto.CardResponse, len(cards))
	for i, card := range cards {
		cardResponses[i] = formatCard(card)
	}

	channelSet := make(map[string]bool)
	messageResponses := make([]dto.MessageResponse, len(messages))
	for i, m := range messages {
		messageResponses[i] = formatMessage(m, reactions[m.ID])
		channel := m.Channel
		if channel == "" {
			channel = "general"
		}
		channelSet[channel] = true
	}

	channels := make([]string, 0, len(channelSet))
	for channel := range channelSet {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	if len(channels) == 0 {
		channels = []string{"general"}
	}

	role := "viewer"
	if client.Authenticated() {
		memberRole, err := r.db.GetMemberRole(board.ID, client.UserID)
		if err != nil {
			return nil, err
		}
		if memberRole != "" {
			role = memberRole
		}
	}

	return &dto.BoardState{
		Cards:           cardResponses,
		Messages:        messageResponses,
		Theme:           board.Theme,
		Title:           board.Title,
		Board: dto.BoardMeta{
			Accent:     board.AccentColor,
			Background: board.BackgroundAnim,
			Code:       board.Code,
		},
		Members:         members,
		Activity:        activity,
		PresenceHistory: history,
		Channels:        channels,
		Role:            role,
	}, nil
}
