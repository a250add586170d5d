package mcp

// ToolDefinitions returns the MCP tool catalog exposed over stdio. Each tool
// maps onto one memory server endpoint.
func ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "memory_store_context",
			Description: "Store a value in ephemeral session context. Expires automatically.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"sessionId":  {Type: "string", Description: "Session identifier"},
					"key":        {Type: "string", Description: "Context key"},
					"value":      {Type: "string", Description: "Value to store"},
					"ttlSeconds": {Type: "number", Description: "Time to live in seconds", Default: 86400},
				},
				Required: []string{"sessionId", "key", "value"},
			},
		},
		{
			Name:        "memory_get_context",
			Description: "Retrieve session context. Omit key to get the whole session.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"sessionId": {Type: "string", Description: "Session identifier"},
					"key":       {Type: "string", Description: "Context key (optional)"},
				},
				Required: []string{"sessionId"},
			},
		},
		{
			Name:        "memory_store_preference",
			Description: "Store a durable user preference. Overwrites any existing value for the same category and key.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId":   {Type: "string", Description: "User identifier"},
					"category": {Type: "string", Description: "Preference category, e.g. 'communication'"},
					"key":      {Type: "string", Description: "Preference key"},
					"value":    {Type: "string", Description: "Preference value"},
				},
				Required: []string{"userId", "category", "key", "value"},
			},
		},
		{
			Name:        "memory_get_preferences",
			Description: "Get a user's preferences, optionally filtered by category.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId":   {Type: "string", Description: "User identifier"},
					"category": {Type: "string", Description: "Category filter (optional)"},
				},
				Required: []string{"userId"},
			},
		},
		{
			Name:        "memory_record_behavior",
			Description: "Record an observed behavior pattern. Repeat observations raise its confidence.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId":       {Type: "string", Description: "User identifier"},
					"behaviorType": {Type: "string", Description: "Kind of behavior, e.g. 'scheduling'"},
					"pattern":      {Type: "string", Description: "The observed pattern"},
				},
				Required: []string{"userId", "behaviorType", "pattern"},
			},
		},
		{
			Name:        "memory_get_behaviors",
			Description: "Get a user's learned behaviors above a confidence threshold.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId":        {Type: "string", Description: "User identifier"},
					"behaviorType":  {Type: "string", Description: "Type filter (optional)"},
					"minConfidence": {Type: "number", Description: "Minimum confidence", Default: 0.5},
				},
				Required: []string{"userId"},
			},
		},
		{
			Name:        "memory_store_event",
			Description: "Append an event to the episodic log.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId":    {Type: "string", Description: "User identifier"},
					"eventType": {Type: "string", Description: "Event type, e.g. 'conversation'"},
					"summary":   {Type: "string", Description: "One-line event summary"},
				},
				Required: []string{"userId", "eventType", "summary"},
			},
		},
		{
			Name:        "memory_get_recent_events",
			Description: "Get a user's recent episodic events.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId": {Type: "string", Description: "User identifier"},
					"days":   {Type: "number", Description: "How many days back to look", Default: 7},
				},
				Required: []string{"userId"},
			},
		},
		{
			Name:        "memory_semantic_store",
			Description: "Embed and store text in the semantic memory index.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId":     {Type: "string", Description: "User identifier"},
					"text":       {Type: "string", Description: "Text to remember"},
					"memoryType": {Type: "string", Description: "Memory type, e.g. 'knowledge'"},
				},
				Required: []string{"userId", "text"},
			},
		},
		{
			Name:        "memory_semantic_search",
			Description: "Search one user's semantic memory by meaning. Returns their closest stored texts.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId": {Type: "string", Description: "User identifier"},
					"query":  {Type: "string", Description: "Search query"},
					"topK":   {Type: "number", Description: "Number of results", Default: 10},
				},
				Required: []string{"userId", "query"},
			},
		},
		{
			Name:        "memory_export_user",
			Description: "Export everything stored about a user across all memory tiers.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId": {Type: "string", Description: "User identifier"},
				},
				Required: []string{"userId"},
			},
		},
		{
			Name:        "memory_delete_user",
			Description: "Delete a user's data from every memory tier. Irreversible; requires confirm=true.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"userId":  {Type: "string", Description: "User identifier"},
					"confirm": {Type: "boolean", Description: "Must be true to proceed"},
				},
				Required: []string{"userId", "confirm"},
			},
		},
	}
}
