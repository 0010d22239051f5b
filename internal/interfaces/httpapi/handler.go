package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/campus-sports/livematch/internal/domain/fixture"
	"github.com/campus-sports/livematch/internal/domain/lineup"
	"github.com/campus-sports/livematch/internal/domain/matchevent"
	"github.com/campus-sports/livematch/internal/usecase"
)

type Handler struct {
	matchService     *usecase.LiveMatchService
	reconcileService *usecase.ReconcileService
	logger           *slog.Logger
	validator        *validator.Validate
}

func NewHandler(
	matchService *usecase.LiveMatchService,
	reconcileService *usecase.ReconcileService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		matchService:     matchService,
		reconcileService: reconcileService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetFixtureSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixtureSnapshot")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	snapshot, err := h.matchService.Snapshot(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture snapshot failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshotToDTO(ctx, snapshot))
}

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTimeline")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	events, err := h.matchService.Timeline(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get timeline failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]eventDTO, 0, len(events))
	for _, event := range events {
		items = append(items, eventToDTO(ctx, event))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLineup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLineup")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	side := fixture.Side(strings.ToLower(strings.TrimSpace(r.PathValue("team"))))
	if !side.Valid() {
		writeError(ctx, w, fmt.Errorf("%w: team must be home or away", usecase.ErrInvalidInput))
		return
	}

	state, err := h.matchService.Lineup(ctx, fixtureID, side)
	if err != nil {
		h.logger.WarnContext(ctx, "get lineup failed", "fixture_id", fixtureID, "team", side, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lineupStateToDTO(ctx, state))
}

func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStatistics")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	stats, err := h.matchService.Statistics(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get statistics failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, statisticsToDTO(ctx, stats))
}

func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddEvent")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	var req addEventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	event, err := h.matchService.AddEvent(ctx, fixtureID, usecase.AddEventInput{
		Kind:         matchevent.Kind(req.Type),
		Team:         fixture.Side(req.Team),
		Minute:       req.Minute,
		InjuryTime:   req.InjuryTime,
		Commentary:   req.Commentary,
		Goal:         req.Goal.toDomain(),
		Substitution: req.Substitution.toDomain(),
		Card:         req.Card.toDomain(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "add event failed", "fixture_id", fixtureID, "type", req.Type, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, eventToDTO(ctx, event))
}

func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EditEvent")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	eventID := r.PathValue("eventID")
	var req patchEventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	event, err := h.matchService.EditEvent(ctx, fixtureID, eventID, usecase.EventPatch{
		Minute:       req.Minute,
		InjuryTime:   req.InjuryTime,
		Commentary:   req.Commentary,
		Goal:         req.Goal.toDomain(),
		Substitution: req.Substitution.toDomain(),
		Card:         req.Card.toDomain(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "edit event failed", "fixture_id", fixtureID, "event_id", eventID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventToDTO(ctx, event))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteEvent")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	eventID := r.PathValue("eventID")
	if err := h.matchService.DeleteEvent(ctx, fixtureID, eventID); err != nil {
		h.logger.WarnContext(ctx, "delete event failed", "fixture_id", fixtureID, "event_id", eventID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, nil)
}

func (h *Handler) RecordPhase(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordPhase")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	var req phaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	event, err := h.matchService.AddEvent(ctx, fixtureID, usecase.AddEventInput{
		Kind:       matchevent.Kind(req.Phase),
		Minute:     req.Minute,
		InjuryTime: req.InjuryTime,
		Commentary: req.Commentary,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record phase failed", "fixture_id", fixtureID, "phase", req.Phase, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, eventToDTO(ctx, event))
}

func (h *Handler) SaveFormation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveFormation")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	var req formationSaveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.matchService.SaveFormation(ctx, fixtureID, req.Home.toDomain(), req.Away.toDomain())
	if err != nil {
		h.logger.WarnContext(ctx, "save formation failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, nil)
}

func (h *Handler) SetClock(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetClock")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	var req clockRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	clock := fixture.Clock{Minute: req.Minute, InjuryTime: req.InjuryTime}
	if err := h.matchService.SetClock(ctx, fixtureID, clock); err != nil {
		h.logger.WarnContext(ctx, "set clock failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, nil)
}

func (h *Handler) CommitPending(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CommitPending")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	if err := h.matchService.CommitPending(ctx, fixtureID); err != nil {
		h.logger.WarnContext(ctx, "commit pending failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, nil)
}

func (h *Handler) RunReconcile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunReconcile")
	defer span.End()

	var req reconcileRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	result, err := h.reconcileService.Run(ctx, usecase.ReconcileInput{FixtureIDs: req.FixtureIDs})
	if err != nil {
		h.logger.ErrorContext(ctx, "reconcile run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reconcileResultToDTO(ctx, result))
}

func decodeBody(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type playerRefRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name" validate:"max=120"`
}

func (r *playerRefRequest) toRef() matchevent.PlayerRef {
	if r == nil {
		return matchevent.PlayerRef{}
	}
	return matchevent.PlayerRef{
		PlayerID: strings.TrimSpace(r.PlayerID),
		Name:     strings.TrimSpace(r.Name),
	}
}

type goalRequest struct {
	Scorer playerRefRequest  `json:"scorer"`
	Assist *playerRefRequest `json:"assist,omitempty"`
	Type   string            `json:"goalType" validate:"omitempty,oneof=regular penalty free-kick header own-goal"`
}

func (r *goalRequest) toDomain() *matchevent.GoalDetail {
	if r == nil {
		return nil
	}
	goalType := matchevent.GoalType(r.Type)
	if goalType == "" {
		goalType = matchevent.GoalTypeRegular
	}
	detail := &matchevent.GoalDetail{
		Scorer: r.Scorer.toRef(),
		Type:   goalType,
	}
	if r.Assist != nil {
		assist := r.Assist.toRef()
		detail.Assist = &assist
	}
	return detail
}

type substitutionRequest struct {
	PlayerOut playerRefRequest `json:"playerOut"`
	PlayerIn  playerRefRequest `json:"playerIn"`
	Injury    bool             `json:"injury"`
}

func (r *substitutionRequest) toDomain() *matchevent.SubstitutionDetail {
	if r == nil {
		return nil
	}
	return &matchevent.SubstitutionDetail{
		PlayerOut: r.PlayerOut.toRef(),
		PlayerIn:  r.PlayerIn.toRef(),
		Injury:    r.Injury,
	}
}

type cardRequest struct {
	Player playerRefRequest `json:"player"`
	Type   string           `json:"cardType" validate:"omitempty,oneof=second-yellow straight-red"`
}

func (r *cardRequest) toDomain() *matchevent.CardDetail {
	if r == nil {
		return nil
	}
	return &matchevent.CardDetail{
		Player: r.Player.toRef(),
		Type:   matchevent.CardType(r.Type),
	}
}

type addEventRequest struct {
	Type         string               `json:"type" validate:"required"`
	Team         string               `json:"team" validate:"omitempty,oneof=home away"`
	Minute       int                  `json:"minute" validate:"gte=0,lte=120"`
	InjuryTime   bool                 `json:"injuryTime"`
	Commentary   string               `json:"commentary" validate:"max=500"`
	Goal         *goalRequest         `json:"goal,omitempty"`
	Substitution *substitutionRequest `json:"substitution,omitempty"`
	Card         *cardRequest         `json:"card,omitempty"`
}

type patchEventRequest struct {
	Minute       *int                 `json:"minute,omitempty" validate:"omitempty,gte=0,lte=120"`
	InjuryTime   *bool                `json:"injuryTime,omitempty"`
	Commentary   *string              `json:"commentary,omitempty" validate:"omitempty,max=500"`
	Goal         *goalRequest         `json:"goal,omitempty"`
	Substitution *substitutionRequest `json:"substitution,omitempty"`
	Card         *cardRequest         `json:"card,omitempty"`
}

type phaseRequest struct {
	Phase      string `json:"phase" validate:"required,oneof=kickoff halftime fulltime"`
	Minute     int    `json:"minute" validate:"gte=0,lte=120"`
	InjuryTime bool   `json:"injuryTime"`
	Commentary string `json:"commentary" validate:"max=500"`
}

type lineupSnapshotRequest struct {
	Formation   string   `json:"formation" validate:"max=20"`
	StartingXI  []string `json:"startingXI" validate:"required,min=1,max=11,dive,required"`
	Substitutes []string `json:"substitutes" validate:"dive,required"`
}

func (r lineupSnapshotRequest) toDomain() lineup.Snapshot {
	return lineup.Snapshot{
		Formation:   strings.TrimSpace(r.Formation),
		StartingXI:  append([]string(nil), r.StartingXI...),
		Substitutes: append([]string(nil), r.Substitutes...),
	}
}

type formationSaveRequest struct {
	Home lineupSnapshotRequest `json:"home" validate:"required"`
	Away lineupSnapshotRequest `json:"away" validate:"required"`
}

type clockRequest struct {
	Minute     int  `json:"minute" validate:"gte=0,lte=120"`
	InjuryTime bool `json:"injuryTime"`
}

type playerRefDTO struct {
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`
}

type goalDTO struct {
	Scorer playerRefDTO  `json:"scorer"`
	Assist *playerRefDTO `json:"assist,omitempty"`
	Type   string        `json:"goalType"`
}

type substitutionDTO struct {
	PlayerOut playerRefDTO `json:"playerOut"`
	PlayerIn  playerRefDTO `json:"playerIn"`
	Injury    bool         `json:"injury,omitempty"`
}

type cardDTO struct {
	Player playerRefDTO `json:"player"`
	Type   string       `json:"cardType,omitempty"`
}

type eventDTO struct {
	ID           string           `json:"id"`
	Type         string           `json:"type"`
	Team         string           `json:"team,omitempty"`
	Minute       int              `json:"minute"`
	InjuryTime   bool             `json:"injuryTime,omitempty"`
	Commentary   string           `json:"commentary,omitempty"`
	Goal         *goalDTO         `json:"goal,omitempty"`
	Substitution *substitutionDTO `json:"substitution,omitempty"`
	Card         *cardDTO         `json:"card,omitempty"`
	RecordedAt   string           `json:"recordedAt"`
}

type lineupStateDTO struct {
	Formation   string   `json:"formation"`
	StartingXI  []string `json:"startingXI"`
	Substitutes []string `json:"substitutes"`
	CameOff     []string `json:"cameOff,omitempty"`
}

type teamCountsDTO struct {
	Goals             int `json:"goals"`
	Corners           int `json:"corners"`
	Offsides          int `json:"offsides"`
	YellowCards       int `json:"yellowCards"`
	RedCards          int `json:"redCards"`
	PenaltiesAwarded  int `json:"penaltiesAwarded"`
	PenaltiesMissed   int `json:"penaltiesMissed"`
	PenaltiesSaved    int `json:"penaltiesSaved"`
	SubstitutionsUsed int `json:"substitutionsUsed"`
}

type statisticsDTO struct {
	Home teamCountsDTO `json:"home"`
	Away teamCountsDTO `json:"away"`
}

type snapshotDTO struct {
	FixtureID     string         `json:"fixtureId"`
	Status        string         `json:"status"`
	CurrentMinute int            `json:"currentMinute"`
	InjuryTime    bool           `json:"injuryTime,omitempty"`
	Timeline      []eventDTO     `json:"timeline"`
	HomeLineup    lineupStateDTO `json:"homeLineup"`
	AwayLineup    lineupStateDTO `json:"awayLineup"`
	Statistics    statisticsDTO  `json:"statistics"`
}

type reconcileRequest struct {
	FixtureIDs []string `json:"fixtureIds,omitempty" validate:"dive,required"`
}

type reconcileTaskDTO struct {
	FixtureID  string `json:"fixtureId"`
	Action     string `json:"action"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

type reconcileResultDTO struct {
	Success int                `json:"success"`
	Failed  int                `json:"failed"`
	Skipped int                `json:"skipped"`
	Tasks   []reconcileTaskDTO `json:"tasks"`
}

func refToDTO(ref matchevent.PlayerRef) playerRefDTO {
	return playerRefDTO{PlayerID: ref.PlayerID, Name: ref.Name}
}

func eventToDTO(ctx context.Context, event matchevent.Event) eventDTO {
	ctx, span := startSpan(ctx, "httpapi.eventToDTO")
	defer span.End()

	dto := eventDTO{
		ID:         event.ID,
		Type:       string(event.Kind),
		Team:       string(event.Team),
		Minute:     event.Minute,
		InjuryTime: event.InjuryTime,
		Commentary: event.Commentary,
		RecordedAt: event.RecordedAt.UTC().Format(time.RFC3339),
	}
	if event.Goal != nil {
		goal := &goalDTO{
			Scorer: refToDTO(event.Goal.Scorer),
			Type:   string(event.Goal.Type),
		}
		if event.Goal.Assist != nil {
			assist := refToDTO(*event.Goal.Assist)
			goal.Assist = &assist
		}
		dto.Goal = goal
	}
	if event.Substitution != nil {
		dto.Substitution = &substitutionDTO{
			PlayerOut: refToDTO(event.Substitution.PlayerOut),
			PlayerIn:  refToDTO(event.Substitution.PlayerIn),
			Injury:    event.Substitution.Injury,
		}
	}
	if event.Card != nil {
		dto.Card = &cardDTO{
			Player: refToDTO(event.Card.Player),
			Type:   string(event.Card.Type),
		}
	}
	return dto
}

func lineupStateToDTO(ctx context.Context, state lineup.State) lineupStateDTO {
	ctx, span := startSpan(ctx, "httpapi.lineupStateToDTO")
	defer span.End()

	return lineupStateDTO{
		Formation:   state.Formation,
		StartingXI:  append([]string{}, state.StartingXI...),
		Substitutes: append([]string{}, state.Substitutes...),
		CameOff:     append([]string(nil), state.CameOff...),
	}
}

func countsToDTO(counts matchevent.TeamCounts) teamCountsDTO {
	return teamCountsDTO{
		Goals:             counts.Goals,
		Corners:           counts.Corners,
		Offsides:          counts.Offsides,
		YellowCards:       counts.YellowCards,
		RedCards:          counts.RedCards,
		PenaltiesAwarded:  counts.PenaltiesAwarded,
		PenaltiesMissed:   counts.PenaltiesMissed,
		PenaltiesSaved:    counts.PenaltiesSaved,
		SubstitutionsUsed: counts.SubstitutionsUsed,
	}
}

func statisticsToDTO(ctx context.Context, stats matchevent.Statistics) statisticsDTO {
	ctx, span := startSpan(ctx, "httpapi.statisticsToDTO")
	defer span.End()

	return statisticsDTO{
		Home: countsToDTO(stats.Home),
		Away: countsToDTO(stats.Away),
	}
}

func snapshotToDTO(ctx context.Context, snapshot usecase.FixtureSnapshot) snapshotDTO {
	ctx, span := startSpan(ctx, "httpapi.snapshotToDTO")
	defer span.End()

	timeline := make([]eventDTO, 0, len(snapshot.Timeline))
	for _, event := range snapshot.Timeline {
		timeline = append(timeline, eventToDTO(ctx, event))
	}

	return snapshotDTO{
		FixtureID:     snapshot.FixtureID,
		Status:        snapshot.Status,
		CurrentMinute: snapshot.CurrentMinute,
		InjuryTime:    snapshot.InjuryTime,
		Timeline:      timeline,
		HomeLineup:    lineupStateToDTO(ctx, snapshot.HomeLineup),
		AwayLineup:    lineupStateToDTO(ctx, snapshot.AwayLineup),
		Statistics:    statisticsToDTO(ctx, snapshot.Statistics),
	}
}

func reconcileResultToDTO(ctx context.Context, result usecase.ReconcileResult) reconcileResultDTO {
	ctx, span := startSpan(ctx, "httpapi.reconcileResultToDTO")
	defer span.End()

	tasks := make([]reconcileTaskDTO, 0, len(result.Tasks))
	for _, task := range result.Tasks {
		tasks = append(tasks, reconcileTaskDTO{
			FixtureID:  task.FixtureID,
			Action:     task.Action,
			Status:     task.Status,
			Message:    task.Message,
			DurationMs: task.DurationMs,
		})
	}

	return reconcileResultDTO{
		Success: result.SuccessCount,
		Failed:  result.FailedCount,
		Skipped: result.SkippedCount,
		Tasks:   tasks,
	}
}
