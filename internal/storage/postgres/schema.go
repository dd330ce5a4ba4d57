package postgres

const createSyncStateSQL = `
CREATE TABLE IF NOT EXISTS sync_state (
    sync_key text PRIMARY KEY,
    version text NOT NULL,
    updated_at timestamptz NOT NULL
)`

const createChampionsSQL = `
CREATE TABLE IF NOT EXISTS champions (
    key text PRIMARY KEY,
    id text NOT NULL,
    name text NOT NULL,
    title text,
    tags text[] NOT NULL DEFAULT '{}',
    version text NOT NULL,
    data jsonb NOT NULL,
    fetched_at timestamptz NOT NULL
)`

const createSummonerRankedSQL = `
CREATE TABLE IF NOT EXISTS summoner_ranked (
    summoner_id text PRIMARY KEY,
    puuid text NOT NULL,
    league_points int NOT NULL,
    wins int NOT NULL,
    losses int NOT NULL,
    rank text NOT NULL,
    tier text NOT NULL,
    hot_streak boolean NOT NULL,
    veteran boolean NOT NULL,
    fresh_blood boolean NOT NULL,
    inactive boolean NOT NULL,
    region text NOT NULL,
    fetched_at timestamptz NOT NULL
)`

const createSummonerProfileSQL = `
CREATE TABLE IF NOT EXISTS summoner_profile (
    id text PRIMARY KEY,
    puuid text NOT NULL,
    account_id text NOT NULL,
    profile_icon_id int NOT NULL,
    summoner_level bigint NOT NULL,
    revision_date bigint NOT NULL,
    fetched_at timestamptz NOT NULL
)`

const createRiotAccountSQL = `
CREATE TABLE IF NOT EXISTS riot_account (
    puuid text PRIMARY KEY,
    game_name text NOT NULL,
    tag_line text NOT NULL,
    fetched_at timestamptz NOT NULL
)`
