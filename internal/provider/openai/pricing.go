package openai

// USD per 1M tokens.
const (
	gpt41InputPerMTok       = 2.00
	gpt41CachedInputPerMTok = 0.50
	gpt41OutputPerMTok      = 8.00

	gpt41MiniInputPerMTok       = 0.40
	gpt41MiniCachedInputPerMTok = 0.10
	gpt41MiniOutputPerMTok      = 1.60

	gpt41NanoInputPerMTok       = 0.100
	gpt41NanoCachedInputPerMTok = 0.025
	gpt41NanoOutputPerMTok      = 0.400

	o3InputPerMTok       = 10.00
	o3CachedInputPerMTok = 2.50
	o3OutputPerMTok      = 40.00

	o4MiniInputPerMTok       = 1.100
	o4MiniCachedInputPerMTok = 0.275
	o4MiniOutputPerMTok      = 4.400
)
