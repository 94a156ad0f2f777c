package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"invitetrack/internal/service"
)

// snowflakeRegexp matches Discord snowflake identifiers
var snowflakeRegexp = regexp.MustCompile(`^\d{15,21}$`)

// InviteHandler handles invite-generation and referral-listing requests
type InviteHandler struct {
	onboard     *service.OnboardService
	attribution *service.AttributionService
	timeout     time.Duration
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(onboard *service.OnboardService, attribution *service.AttributionService, timeout time.Duration) *InviteHandler {
	return &InviteHandler{
		onboard:     onboard,
		attribution: attribution,
		timeout:     timeout,
	}
}

type generateInviteRequest struct {
	DiscordID       string `json:"discordId"`
	DiscordUsername string `json:"discordUsername"`
	Email           string `json:"email,omitempty"`
}

// GenerateInvite handles POST /generate-invite: creates a personal
// invite link and private referral thread for the given member.
func (h *InviteHandler) GenerateInvite(w http.ResponseWriter, r *http.Request) {
	var req generateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if !snowflakeRegexp.MatchString(req.DiscordID) {
		respondError(w, http.StatusBadRequest, "Invalid discordId", nil)
		return
	}
	if req.DiscordUsername == "" {
		respondError(w, http.StatusBadRequest, "discordUsername is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.onboard.GenerateInvite(ctx, req.DiscordID, req.DiscordUsername, req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate invite", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

type referralView struct {
	MemberID       string    `json:"memberId"`
	MemberUsername string    `json:"memberUsername"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ListReferrals handles GET /referrals/{inviterId}: lists the joins
// credited to an inviter.
func (h *InviteHandler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	inviterID := r.PathValue("inviterId")
	if !snowflakeRegexp.MatchString(inviterID) {
		respondError(w, http.StatusBadRequest, "Invalid inviterId", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	attributions, err := h.attribution.Referrals(ctx, inviterID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list referrals", err)
		return
	}

	views := make([]referralView, 0, len(attributions))
	for _, a := range attributions {
		views = append(views, referralView{
			MemberID:       a.MemberID,
			MemberUsername: a.MemberUsername,
			Status:         a.Status,
			CreatedAt:      a.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"referrals": views})
}
