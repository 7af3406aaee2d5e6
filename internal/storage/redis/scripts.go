package redis

const (
	// commitScript adds elapsed time to the lifetime and weekly sorted sets together
	commitScript = `
local totals_key = KEYS[1]     -- voicetime:totals
local weekly_key = KEYS[2]     -- voicetime:weekly:{weekStartMs}

local user_id = ARGV[1]
local ms = tonumber(ARGV[2])

redis.call('ZINCRBY', totals_key, ms, user_id)
redis.call('ZINCRBY', weekly_key, ms, user_id)

return 1
`

	// adjustScript applies a signed correction floored at zero.
	// Returns 0 without writing when removing time from a user with no lifetime entry.
	adjustScript = `
local totals_key = KEYS[1]     -- voicetime:totals
local weekly_key = KEYS[2]     -- voicetime:weekly:{weekStartMs}

local user_id = ARGV[1]
local delta = tonumber(ARGV[2])

local current = redis.call('ZSCORE', totals_key, user_id)
if not current then
  if delta < 0 then
    return 0
  end
  redis.call('ZADD', totals_key, delta, user_id)
else
  local value = tonumber(current) + delta
  if value < 0 then
    value = 0
  end
  redis.call('ZADD', totals_key, value, user_id)
end

local weekly = redis.call('ZSCORE', weekly_key, user_id)
if not weekly then
  if delta > 0 then
    redis.call('ZADD', weekly_key, delta, user_id)
  end
else
  local value = tonumber(weekly) + delta
  if value < 0 then
    value = 0
  end
  redis.call('ZADD', weekly_key, value, user_id)
end

return 1
`
)
