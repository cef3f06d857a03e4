package heroes

// Request is one GraphQL operation ready to POST: static query text plus a
// variables object. Caller-supplied values only ever travel as variables and
// are never interpolated into the query text, so a value like
// `") { evil }` stays an inert string on the wire.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`

	operation string
	mutation  bool
}

// Operation names double as the envelope field each response must carry.
const (
	opGetHero             = "getHero"
	opAllHeroes           = "allHeroes"
	opAllHeroesByHeroName = "allHeroesByHeroName"
	opAllHeroesByPowers   = "allHeroesByPowers"
	opAddHero             = "addHero"
	opUpdateHero          = "updateHero"
	opDeleteHero          = "deleteHero"
)

const getHeroQuery = `query getHero($id: ID!) {
  getHero(id: $id) {
    id
    hero_name
    powers
    backstory
  }
}`

const allHeroesQuery = `query allHeroes($count: Int, $nextToken: String) {
  allHeroes(count: $count, nextToken: $nextToken) {
    heroes {
      id
      hero_name
      powers
      backstory
    }
    nextToken
  }
}`

const allHeroesByHeroNameQuery = `query allHeroesByHeroName($hero_name: String!) {
  allHeroesByHeroName(hero_name: $hero_name) {
    heroes {
      id
      hero_name
      powers
      backstory
    }
    nextToken
  }
}`

const allHeroesByPowersQuery = `query allHeroesByPowers($powers: String!) {
  allHeroesByPowers(powers: $powers) {
    heroes {
      id
      hero_name
      powers
      backstory
    }
    nextToken
  }
}`

const addHeroQuery = `mutation addHero($hero_name: String!, $powers: String!, $backstory: String!) {
  addHero(hero_name: $hero_name, powers: $powers, backstory: $backstory) {
    id
    hero_name
  }
}`

const updateHeroQuery = `mutation updateHero($id: ID!, $hero_name: String!, $powers: String!, $backstory: String!) {
  updateHero(id: $id, hero_name: $hero_name, powers: $powers, backstory: $backstory) {
    id
    hero_name
  }
}`

const deleteHeroQuery = `mutation deleteHero($id: ID!) {
  deleteHero(id: $id) {
    id
    hero_name
    powers
    backstory
  }
}`

func getHeroRequest(id string) Request {
	return Request{
		Query:     getHeroQuery,
		Variables: map[string]any{"id": id},
		operation: opGetHero,
	}
}

func allHeroesRequest(count int, nextToken string) Request {
	vars := map[string]any{"count": count}
	if nextToken != "" {
		vars["nextToken"] = nextToken
	}
	return Request{
		Query:     allHeroesQuery,
		Variables: vars,
		operation: opAllHeroes,
	}
}

func allHeroesByHeroNameRequest(heroName string) Request {
	return Request{
		Query:     allHeroesByHeroNameQuery,
		Variables: map[string]any{"hero_name": heroName},
		operation: opAllHeroesByHeroName,
	}
}

func allHeroesByPowersRequest(powers string) Request {
	return Request{
		Query:     allHeroesByPowersQuery,
		Variables: map[string]any{"powers": powers},
		operation: opAllHeroesByPowers,
	}
}

func addHeroRequest(input HeroInput) Request {
	return Request{
		Query: addHeroQuery,
		Variables: map[string]any{
			"hero_name": input.HeroName,
			"powers":    input.Powers,
			"backstory": input.Backstory,
		},
		operation: opAddHero,
		mutation:  true,
	}
}

func updateHeroRequest(id string, input HeroInput) Request {
	return Request{
		Query: updateHeroQuery,
		Variables: map[string]any{
			"id":        id,
			"hero_name": input.HeroName,
			"powers":    input.Powers,
			"backstory": input.Backstory,
		},
		operation: opUpdateHero,
		mutation:  true,
	}
}

func deleteHeroRequest(id string) Request {
	return Request{
		Query:     deleteHeroQuery,
		Variables: map[string]any{"id": id},
		operation: opDeleteHero,
		mutation:  true,
	}
}
