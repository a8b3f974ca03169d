package event

// Type identifies one entry of the closed event-type catalog. Values outside
// the catalog are rejected by Known rather than silently categorized.
type Type string

// Session lifecycle.
const (
	SessionStarted     Type = "SESSION_STARTED"
	SessionResumed     Type = "SESSION_RESUMED"
	SessionHeartbeat   Type = "SESSION_HEARTBEAT"
	SessionCompleted   Type = "SESSION_COMPLETED"
	SessionAbandoned   Type = "SESSION_ABANDONED"
	PageReloaded       Type = "PAGE_RELOADED"
	ConnectionLost     Type = "CONNECTION_LOST"
	ConnectionRestored Type = "CONNECTION_RESTORED"
)

// Code editing.
const (
	CodeTyped        Type = "CODE_TYPED"
	CodePasted       Type = "CODE_PASTED"
	CodeDeleted      Type = "CODE_DELETED"
	CodeUndo         Type = "CODE_UNDO"
	CodeRedo         Type = "CODE_REDO"
	CodeFormatted    Type = "CODE_FORMATTED"
	CodeCommentAdded Type = "CODE_COMMENT_ADDED"
	EditorCleared    Type = "EDITOR_CLEARED"
)

// Query operations.
const (
	SQLRun             Type = "SQL_RUN"
	QueryJoinUsed      Type = "QUERY_JOIN_USED"
	QueryAggregateUsed Type = "QUERY_AGGREGATE_USED"
	QuerySubqueryUsed  Type = "QUERY_SUBQUERY_USED"
	QueryGroupByUsed   Type = "QUERY_GROUPBY_USED"
	QueryFilterUsed    Type = "QUERY_FILTER_USED"
	QueryWindowUsed    Type = "QUERY_WINDOW_USED"
	QuerySaved         Type = "QUERY_SAVED"
)

// Execution results.
const (
	ExecutionSucceeded Type = "EXECUTION_SUCCEEDED"
	ExecutionError     Type = "EXECUTION_ERROR"
	ExecutionTimeout   Type = "EXECUTION_TIMEOUT"
	ExecutionCancelled Type = "EXECUTION_CANCELLED"
	EmptyResultSet     Type = "EMPTY_RESULT_SET"
	LargeResultSet     Type = "LARGE_RESULT_SET"
	ResultExported     Type = "RESULT_EXPORTED"
	SyntaxError        Type = "SYNTAX_ERROR"
)

// Data exploration.
const (
	SchemaViewed         Type = "SCHEMA_VIEWED"
	TablePreviewed       Type = "TABLE_PREVIEWED"
	ColumnInspected      Type = "COLUMN_INSPECTED"
	ResultSorted         Type = "RESULT_SORTED"
	ResultFiltered       Type = "RESULT_FILTERED"
	ChartViewed          Type = "CHART_VIEWED"
	SampleDataRequested  Type = "SAMPLE_DATA_REQUESTED"
	DataDictionaryOpened Type = "DATA_DICTIONARY_OPENED"
)

// AI interaction.
const (
	AIPromptSent          Type = "AI_PROMPT_SENT"
	AIResponseReceived    Type = "AI_RESPONSE_RECEIVED"
	AICodeCopied          Type = "AI_CODE_COPIED"
	AICodeModified        Type = "AI_CODE_MODIFIED"
	AISuggestionRejected  Type = "AI_SUGGESTION_REJECTED"
	AIClarificationAsked  Type = "AI_CLARIFICATION_ASKED"
	AIErrorPasted         Type = "AI_ERROR_PASTED"
	AIConversationCleared Type = "AI_CONVERSATION_CLEARED"
)

// Interview phase.
const (
	PhaseSubmitted    Type = "PHASE_SUBMITTED"
	InterviewStarted  Type = "INTERVIEW_STARTED"
	InterviewQuestion Type = "INTERVIEW_QUESTION"
	InterviewAnswer   Type = "INTERVIEW_ANSWER"
	InterviewFollowup Type = "INTERVIEW_FOLLOWUP"
	InterviewSkipped  Type = "INTERVIEW_SKIPPED"
	AnswerRevised     Type = "ANSWER_REVISED"
	InterviewEnded    Type = "INTERVIEW_ENDED"
)

// Problem solving.
const (
	ProblemViewed      Type = "PROBLEM_VIEWED"
	ProblemReread      Type = "PROBLEM_REREAD"
	RequirementChecked Type = "REQUIREMENT_CHECKED"
	ApproachChanged    Type = "APPROACH_CHANGED"
	SolutionDrafted    Type = "SOLUTION_DRAFTED"
	SolutionDiscarded  Type = "SOLUTION_DISCARDED"
	HintRequested      Type = "HINT_REQUESTED"
	NotesUpdated       Type = "NOTES_UPDATED"
)

// Attention and timing.
const (
	IdleGap       Type = "IDLE_GAP"
	FocusLost     Type = "FOCUS_LOST"
	FocusGained   Type = "FOCUS_GAINED"
	TabSwitched   Type = "TAB_SWITCHED"
	WindowBlurred Type = "WINDOW_BLURRED"
	WindowFocused Type = "WINDOW_FOCUSED"
	TypingBurst   Type = "TYPING_BURST"
	LongPause     Type = "LONG_PAUSE"
)

// Workspace.
const (
	PanelResized      Type = "PANEL_RESIZED"
	PanelToggled      Type = "PANEL_TOGGLED"
	ThemeChanged      Type = "THEME_CHANGED"
	FontSizeChanged   Type = "FONT_SIZE_CHANGED"
	LayoutReset       Type = "LAYOUT_RESET"
	ShortcutUsed      Type = "SHORTCUT_USED"
	SettingsOpened    Type = "SETTINGS_OPENED"
	FullscreenToggled Type = "FULLSCREEN_TOGGLED"
)

// entry is one static catalog row.
type entry struct {
	category    Category
	criticality Criticality
}

var catalog = map[Type]entry{
	SessionStarted:     {SessionLifecycle, Critical},
	SessionResumed:     {SessionLifecycle, High},
	SessionHeartbeat:   {SessionLifecycle, Low},
	SessionCompleted:   {SessionLifecycle, Critical},
	SessionAbandoned:   {SessionLifecycle, Critical},
	PageReloaded:       {SessionLifecycle, High},
	ConnectionLost:     {SessionLifecycle, High},
	ConnectionRestored: {SessionLifecycle, Medium},

	CodeTyped:        {CodeEditing, Low},
	CodePasted:       {CodeEditing, High},
	CodeDeleted:      {CodeEditing, Low},
	CodeUndo:         {CodeEditing, Low},
	CodeRedo:         {CodeEditing, Low},
	CodeFormatted:    {CodeEditing, Low},
	CodeCommentAdded: {CodeEditing, Medium},
	EditorCleared:    {CodeEditing, Medium},

	SQLRun:             {QueryOperations, Critical},
	QueryJoinUsed:      {QueryOperations, Medium},
	QueryAggregateUsed: {QueryOperations, Medium},
	QuerySubqueryUsed:  {QueryOperations, Medium},
	QueryGroupByUsed:   {QueryOperations, Medium},
	QueryFilterUsed:    {QueryOperations, Low},
	QueryWindowUsed:    {QueryOperations, High},
	QuerySaved:         {QueryOperations, Medium},

	ExecutionSucceeded: {ExecutionResults, Medium},
	ExecutionError:     {ExecutionResults, High},
	ExecutionTimeout:   {ExecutionResults, High},
	ExecutionCancelled: {ExecutionResults, Medium},
	EmptyResultSet:     {ExecutionResults, Medium},
	LargeResultSet:     {ExecutionResults, Medium},
	ResultExported:     {ExecutionResults, Low},
	SyntaxError:        {ExecutionResults, High},

	SchemaViewed:         {DataExploration, Medium},
	TablePreviewed:       {DataExploration, Medium},
	ColumnInspected:      {DataExploration, Low},
	ResultSorted:         {DataExploration, Low},
	ResultFiltered:       {DataExploration, Low},
	ChartViewed:          {DataExploration, Low},
	SampleDataRequested:  {DataExploration, Medium},
	DataDictionaryOpened: {DataExploration, Low},

	AIPromptSent:          {AIInteraction, Critical},
	AIResponseReceived:    {AIInteraction, High},
	AICodeCopied:          {AIInteraction, Critical},
	AICodeModified:        {AIInteraction, High},
	AISuggestionRejected:  {AIInteraction, Medium},
	AIClarificationAsked:  {AIInteraction, Medium},
	AIErrorPasted:         {AIInteraction, Medium},
	AIConversationCleared: {AIInteraction, Low},

	PhaseSubmitted:    {InterviewPhase, Critical},
	InterviewStarted:  {InterviewPhase, Critical},
	InterviewQuestion: {InterviewPhase, High},
	InterviewAnswer:   {InterviewPhase, Critical},
	InterviewFollowup: {InterviewPhase, High},
	InterviewSkipped:  {InterviewPhase, High},
	AnswerRevised:     {InterviewPhase, Medium},
	InterviewEnded:    {InterviewPhase, Critical},

	ProblemViewed:      {ProblemSolving, Medium},
	ProblemReread:      {ProblemSolving, Medium},
	RequirementChecked: {ProblemSolving, Medium},
	ApproachChanged:    {ProblemSolving, High},
	SolutionDrafted:    {ProblemSolving, Medium},
	SolutionDiscarded:  {ProblemSolving, High},
	HintRequested:      {ProblemSolving, High},
	NotesUpdated:       {ProblemSolving, Low},

	IdleGap:       {AttentionTiming, High},
	FocusLost:     {AttentionTiming, Medium},
	FocusGained:   {AttentionTiming, Low},
	TabSwitched:   {AttentionTiming, High},
	WindowBlurred: {AttentionTiming, Medium},
	WindowFocused: {AttentionTiming, Low},
	TypingBurst:   {AttentionTiming, Low},
	LongPause:     {AttentionTiming, Medium},

	PanelResized:      {Workspace, Low},
	PanelToggled:      {Workspace, Low},
	ThemeChanged:      {Workspace, Low},
	FontSizeChanged:   {Workspace, Low},
	LayoutReset:       {Workspace, Low},
	ShortcutUsed:      {Workspace, Low},
	SettingsOpened:    {Workspace, Low},
	FullscreenToggled: {Workspace, Low},
}

// Known reports whether t is part of the closed catalog.
func Known(t Type) bool {
	_, ok := catalog[t]
	return ok
}

// CategoryOf returns the category for a known type and "" otherwise.
func CategoryOf(t Type) Category {
	return catalog[t].category
}

// CriticalityOf returns the static criticality for a known type and ""
// otherwise.
func CriticalityOf(t Type) Criticality {
	return catalog[t].criticality
}

// Categories returns every category in the catalog. The slice is a fresh copy
// on each call so callers may reorder it freely.
func Categories() []Category {
	return []Category{
		SessionLifecycle,
		CodeEditing,
		QueryOperations,
		ExecutionResults,
		DataExploration,
		AIInteraction,
		InterviewPhase,
		ProblemSolving,
		AttentionTiming,
		Workspace,
	}
}
